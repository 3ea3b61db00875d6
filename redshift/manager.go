// Package redshift shifts the color temperature of display outputs using
// gamma ramps, with support for Wayland (wlr-gamma-control) and X11 (RandR).
package redshift

import (
	"errors"
	"log/slog"
	"os"
)

// Profile describes the color adjustment applied to an output. Profiles are
// immutable values compared by equality to detect changes.
type Profile struct {
	Temperature int     // Kelvin, within [MinTemperature, MaxTemperature]
	Gamma       float64 // gamma correction exponent, 1 for none
	Brightness  float64 // scale applied to every channel, within [0, 1]
	Inverted    bool    // flip each channel after scaling
}

// TemperatureProfile returns a neutral profile for the given color
// temperature (gamma 1, full brightness, not inverted).
func TemperatureProfile(temperature int) Profile {
	return Profile{Temperature: temperature, Gamma: 1, Brightness: 1}
}

// Manager controls color ramps for a display server. It is safe for
// concurrent usage.
type Manager interface {
	// Set applies the profile to all current and future outputs, waiting for
	// it to be applied to any current ones.
	Set(Profile)

	// Close closes the connection to the display server. It may or may not
	// restore the original gamma ramps.
	Close()
}

// New creates a [Manager] for the current display server, if supported. If a
// fatal error occurs later, the chan will return it, and the connection
// should be closed as it will no longer be usable. If logger is nil, logging
// is disabled.
func New(logger *slog.Logger) (Manager, <-chan error, error) {
	switch {
	case os.Getenv("WAYLAND_DISPLAY") != "":
		return NewWayland("", logger)
	case os.Getenv("DISPLAY") != "":
		return NewX11("", logger)
	default:
		return nil, nil, errors.ErrUnsupported
	}
}
