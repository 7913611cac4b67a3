package perforation

import (
	"fmt"

	"telecine/internal/film"
)

// IntRange is an inclusive integer interval.
type IntRange struct {
	Min, Max int
}

// Contains reports whether v lies in the interval.
func (r IntRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// FloatRange is an inclusive floating point interval.
type FloatRange struct {
	Min, Max float64
}

// Contains reports whether v lies in the interval.
func (r FloatRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Template describes the perforation the detector expects to see.
type Template struct {
	Format       film.Format
	ExpectedSize film.Size
	SizeMargin   float64
	WidthRange   IntRange
	HeightRange  IntRange
	AspectRange  FloatRange
}

// NewTemplate derives the acceptance ranges for a format and expected size.
// A zero expected size yields a template that is not yet initialized.
func NewTemplate(format film.Format, expected film.Size, margin float64) (Template, error) {
	if !format.Valid() {
		return Template{}, fmt.Errorf("%w: %v", ErrInvalidFormat, format)
	}
	aspect := format.PerforationAspect()
	aspectMargin := aspect * (margin / 2)
	t := Template{
		Format:      format,
		SizeMargin:  margin,
		AspectRange: FloatRange{Min: aspect - aspectMargin, Max: aspect + aspectMargin},
	}
	if expected.W > 0 && expected.H > 0 {
		wMargin := int(float64(expected.W) * margin)
		hMargin := int(float64(expected.H) * margin)
		t.ExpectedSize = expected
		t.WidthRange = IntRange{Min: expected.W - wMargin, Max: expected.W + wMargin}
		t.HeightRange = IntRange{Min: expected.H - hMargin, Max: expected.H + hMargin}
	}
	return t, nil
}

// Initialized reports whether an expected perforation size is known.
func (t Template) Initialized() bool {
	return t.ExpectedSize.W > 0 && t.ExpectedSize.H > 0
}

// ROI is the search window within the captured image. Center.Y is the
// reference row the servo error is measured against.
type ROI struct {
	Origin film.Point
	Size   film.Size
	Center film.Point
}

// Rect returns the ROI as an image rectangle.
func (r ROI) Rect() film.Rect {
	return film.Rect{X: r.Origin.X, Y: r.Origin.Y, W: r.Size.W, H: r.Size.H}
}

// computeROI places the search window. Before a perforation size is known the
// whole image height of the left half is searched; afterwards a band of the
// image height positioned for the format, only slightly wider than the
// perforation and centered on centerX.
func computeROI(img film.Size, t Template, centerX int, heightFraction float64) ROI {
	if !t.Initialized() {
		return ROI{
			Origin: film.Point{X: 0, Y: 0},
			Size:   film.Size{W: img.W / 2, H: img.H},
		}
	}

	h := int(float64(img.H) * heightFraction)
	var y int
	if t.Format == film.Super8 {
		y = img.H/2 - h/2
	} else {
		y = img.H / 50
	}

	margin := t.ExpectedSize.W / 3
	half := (t.ExpectedSize.W + margin) / 2
	left := max(0, centerX-half)
	right := min(img.W, centerX+half)
	return ROI{
		Origin: film.Point{X: left, Y: y},
		Size:   film.Size{W: right - left, H: h},
		Center: film.Point{X: left + (right-left)/2, Y: y + h/2},
	}
}
