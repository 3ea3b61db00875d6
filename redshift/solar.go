package redshift

import (
	"fmt"
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// Default color temperatures for full day and full night.
const (
	DayTemperature   = 6500
	NightTemperature = 4000
)

// civilTwilightElevation is the solar elevation (in degrees) marking dawn and
// dusk.
const civilTwilightElevation = -6.0

// Sun holds the solar phase times for one day at one location.
type Sun struct {
	Dawn    time.Time
	Sunrise time.Time
	Sunset  time.Time
	Dusk    time.Time
}

// Equal reports whether the phase times of both values represent the same
// instants.
func (s Sun) Equal(other Sun) bool {
	return s.Dawn.Equal(other.Dawn) &&
		s.Sunrise.Equal(other.Sunrise) &&
		s.Sunset.Equal(other.Sunset) &&
		s.Dusk.Equal(other.Dusk)
}

// CalculateSun computes the solar phase times for the date of now at the
// given location. It fails for physically invalid coordinates and for polar
// days or nights where the sun does not cross the horizon.
func CalculateSun(now time.Time, latitude, longitude float64) (Sun, error) {
	if math.Abs(latitude) > 90 || math.Abs(longitude) > 180 {
		return Sun{}, fmt.Errorf("invalid location %g, %g", latitude, longitude)
	}
	day := now.UTC()
	rise, set := sunrise.SunriseSunset(latitude, longitude, day.Year(), day.Month(), day.Day())
	dawn, dusk := sunrise.TimeOfElevation(latitude, longitude, civilTwilightElevation, day.Year(), day.Month(), day.Day())
	if dawn.IsZero() || rise.IsZero() || set.IsZero() || dusk.IsZero() {
		return Sun{}, fmt.Errorf("sun does not cross the horizon at %g, %g", latitude, longitude)
	}
	return Sun{Dawn: dawn, Sunrise: rise, Sunset: set, Dusk: dusk}, nil
}

// TemperatureAt returns the target color temperature for now: night before
// dawn and after dusk, day between sunrise and sunset, and linearly
// interpolated across the two twilight windows.
func TemperatureAt(now time.Time, sun Sun, night, day int) int {
	switch {
	case now.Before(sun.Dawn):
		return night
	case now.Before(sun.Sunrise):
		return interpolateTemperature(now, sun.Dawn, sun.Sunrise, night, day)
	case now.Before(sun.Sunset):
		return day
	case now.Before(sun.Dusk):
		return interpolateTemperature(now, sun.Sunset, sun.Dusk, day, night)
	default:
		return night
	}
}

func interpolateTemperature(now, start, stop time.Time, from, to int) int {
	if start.Equal(stop) {
		return to
	}
	pos := float64(now.Sub(start)) / float64(stop.Sub(start))
	pos = min(max(pos, 0), 1)
	return from + int(math.Round(float64(to-from)*pos))
}
