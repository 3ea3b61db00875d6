// Command automatic-redshift keeps the color temperature of every display
// output in sync with the sun. It computes dawn, sunrise, sunset, and dusk
// for the current location (from GeoClue, or fixed via flags) and ramps the
// temperature across the twilight windows, pushing gamma ramps over
// wlr-gamma-control on Wayland or RandR on X11.
package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/pgaskin/automatic-redshift/geoclue"
	"github.com/pgaskin/automatic-redshift/redshift"
	"github.com/spf13/pflag"
)

// desktopID identifies this daemon to GeoClue.
const desktopID = "automatic-redshift"

type options struct {
	latitude, longitude float64
	dayTemp, nightTemp  int
	gamma, brightness   float64
	inverted            bool
	interval            time.Duration
}

func main() {
	var o options
	pflag.Float64Var(&o.latitude, "latitude", math.NaN(), "fixed latitude, skipping GeoClue (requires --longitude)")
	pflag.Float64Var(&o.longitude, "longitude", math.NaN(), "fixed longitude, skipping GeoClue (requires --latitude)")
	pflag.IntVar(&o.dayTemp, "day-temperature", redshift.DayTemperature, "color temperature between sunrise and sunset (K)")
	pflag.IntVar(&o.nightTemp, "night-temperature", redshift.NightTemperature, "color temperature between dusk and dawn (K)")
	pflag.Float64Var(&o.gamma, "gamma", 1, "gamma correction exponent")
	pflag.Float64Var(&o.brightness, "brightness", 1, "brightness scale between 0 and 1")
	pflag.BoolVar(&o.inverted, "invert", false, "invert the color ramps")
	pflag.DurationVar(&o.interval, "interval", time.Minute, "how often to recompute the target temperature")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, o); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, o options) error {
	for _, temp := range []int{o.dayTemp, o.nightTemp} {
		if temp < redshift.MinTemperature || temp > redshift.MaxTemperature {
			return fmt.Errorf("temperature %dK not in [%d, %d]", temp, redshift.MinTemperature, redshift.MaxTemperature)
		}
	}
	if math.IsNaN(o.latitude) != math.IsNaN(o.longitude) {
		return fmt.Errorf("--latitude and --longitude must be given together")
	}

	manager, fatal, err := redshift.New(logger)
	if err != nil {
		return fmt.Errorf("connect to display server: %w", err)
	}
	defer manager.Close()

	var (
		locations <-chan geoclue.Coordinates
		locErrs   <-chan error
	)
	if !math.IsNaN(o.latitude) {
		seed := make(chan geoclue.Coordinates, 1)
		seed <- geoclue.Coordinates{Latitude: o.latitude, Longitude: o.longitude}
		locations = seed
	} else {
		locations, locErrs, err = geoclue.Watch(desktopID)
		if err != nil {
			return fmt.Errorf("watch location: %w", err)
		}
	}

	var (
		coords  *geoclue.Coordinates
		sun     *redshift.Sun
		applied *redshift.Profile
	)
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case err := <-fatal:
			return fmt.Errorf("display connection: %w", err)
		case err := <-locErrs:
			return fmt.Errorf("location: %w", err)
		case c := <-locations:
			logger.Info("location updated", "latitude", c.Latitude, "longitude", c.Longitude)
			coords = &c
		case <-ticker.C:
			// nothing to do; the recomputation below runs every iteration
		}

		if coords == nil {
			continue
		}

		now := time.Now()
		newSun, err := redshift.CalculateSun(now, coords.Latitude, coords.Longitude)
		if err != nil {
			return fmt.Errorf("compute sun times: %w", err)
		}
		if sun == nil || !newSun.Equal(*sun) {
			sun = &newSun
			logger.Info("sun times changed",
				"dawn", clock(newSun.Dawn),
				"sunrise", clock(newSun.Sunrise),
				"sunset", clock(newSun.Sunset),
				"dusk", clock(newSun.Dusk))
		}

		profile := redshift.Profile{
			Temperature: redshift.TemperatureAt(now, newSun, o.nightTemp, o.dayTemp),
			Gamma:       o.gamma,
			Brightness:  o.brightness,
			Inverted:    o.inverted,
		}
		if applied != nil && *applied == profile {
			logger.Debug("temperature unchanged", "temperature", profile.Temperature)
			continue
		}
		manager.Set(profile)
		applied = &profile
		logger.Info("temperature updated", "temperature", profile.Temperature)
	}
}

func clock(t time.Time) string {
	return t.Local().Format("15:04")
}
