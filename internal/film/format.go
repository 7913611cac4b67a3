package film

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormat reports a film format string that is not recognized.
var ErrInvalidFormat = errors.New("invalid film format")

// Format identifies the film gauge being scanned.
type Format int

const (
	// Super8 has centered perforations on the left edge of the frame.
	Super8 Format = iota + 1
	// Standard8 has perforations near the top of the frame, on the frame line.
	Standard8
)

// Dimensions from the film standards, in millimetres.
var formatSpecs = map[Format]struct {
	name             string
	perforationW     float64
	perforationH     float64
	heightMultiplier float64
	widthMultiplier  float64
}{
	Super8: {
		name:             "super8",
		perforationW:     0.91,
		perforationH:     1.14,
		heightMultiplier: 4.234 / 1.143,
		widthMultiplier:  5.69 / 0.914,
	},
	Standard8: {
		name:             "std8",
		perforationW:     1.8,
		perforationH:     1.23,
		heightMultiplier: 3.81 / 1.23,
		widthMultiplier:  4.5 / 1.8,
	},
}

// ParseFormat converts a configuration value into a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "super8", "super-8", "s8":
		return Super8, nil
	case "std8", "standard8", "standard-8", "8mm":
		return Standard8, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, value)
	}
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	_, ok := formatSpecs[f]
	return ok
}

// String returns the configuration name of the format.
func (f Format) String() string {
	if spec, ok := formatSpecs[f]; ok {
		return spec.name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// PerforationAspect is the theoretical width/height ratio of a perforation.
func (f Format) PerforationAspect() float64 {
	spec, ok := formatSpecs[f]
	if !ok {
		return 0
	}
	return spec.perforationW / spec.perforationH
}

// FrameHeightMultiplier is the frame pitch expressed in perforation heights.
func (f Format) FrameHeightMultiplier() float64 {
	return formatSpecs[f].heightMultiplier
}

// FrameWidthMultiplier is the frame width expressed in perforation widths.
func (f Format) FrameWidthMultiplier() float64 {
	return formatSpecs[f].widthMultiplier
}
