package camera

import (
	"context"
	"errors"

	"telecine/internal/film"
)

// ErrClosed is returned by a camera used after Close.
var ErrClosed = errors.New("camera closed")

// Camera delivers frames on request. Implementations are used from one
// goroutine.
type Camera interface {
	Capture(ctx context.Context) (*film.Image, error)
	// CaptureBracket returns two exposures of the same frame, the second a
	// fixed multiple of the first.
	CaptureBracket(ctx context.Context) (*film.Image, *film.Image, error)
	Close() error
}

// Settings configure an OpenCV capture device.
type Settings struct {
	Device int
	Width  int
	Height int
	// Exposure is passed to the driver as is; zero leaves auto exposure.
	Exposure float64
	// BracketFactor scales the exposure of the second bracket frame.
	BracketFactor float64
	// SettleFrames are read and discarded after an exposure change.
	SettleFrames int
}

// DefaultBracketFactor is the exposure multiple of the second bracket frame.
const DefaultBracketFactor = 4.0
