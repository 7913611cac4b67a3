package perforation

import (
	"fmt"
	"strings"
)

// CheckEdges selects which perforation edge anchors the vertical position.
type CheckEdges int

const (
	// CheckEdgesNone uses the midpoint of the detected top and bottom edges.
	CheckEdgesNone CheckEdges = iota
	// CheckEdgesTop anchors on the top edge and extrapolates the bottom.
	CheckEdgesTop
	// CheckEdgesBottom anchors on the bottom edge and extrapolates the top.
	CheckEdgesBottom
)

// ParseCheckEdges converts a configuration value into a CheckEdges mode.
func ParseCheckEdges(value string) (CheckEdges, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none", "both":
		return CheckEdgesNone, nil
	case "top":
		return CheckEdgesTop, nil
	case "bottom":
		return CheckEdgesBottom, nil
	default:
		return CheckEdgesNone, fmt.Errorf("unknown check_edges mode %q", value)
	}
}

func (c CheckEdges) String() string {
	switch c {
	case CheckEdgesTop:
		return "top"
	case CheckEdgesBottom:
		return "bottom"
	default:
		return "none"
	}
}

// Settings are the tunable detection constants. They are passed in at
// construction so consecutive jobs never share detector state.
type Settings struct {
	// SizeMargin is the fractional tolerance on perforation size and aspect.
	SizeMargin float64
	// ThresholdFraction of the brightest profile value that counts as hole.
	ThresholdFraction float64
	// ROIHeightFraction of the image height searched once initialized.
	ROIHeightFraction float64
	CheckEdges        CheckEdges
	// CheckLeftEdge refines the horizontal position after each vertical find.
	CheckLeftEdge bool
}

// DefaultSettings returns the defaults used by the configuration layer.
func DefaultSettings() Settings {
	return Settings{
		SizeMargin:        0.08,
		ThresholdFraction: 0.98,
		ROIHeightFraction: 1.0 / 3.0,
		CheckEdges:        CheckEdgesNone,
		CheckLeftEdge:     true,
	}
}

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.SizeMargin <= 0 {
		s.SizeMargin = def.SizeMargin
	}
	if s.ThresholdFraction <= 0 || s.ThresholdFraction > 1 {
		s.ThresholdFraction = def.ThresholdFraction
	}
	if s.ROIHeightFraction <= 0 || s.ROIHeightFraction > 1 {
		s.ROIHeightFraction = def.ROIHeightFraction
	}
	return s
}
