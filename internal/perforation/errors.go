package perforation

import (
	"errors"

	"telecine/internal/film"
)

var (
	// ErrInvalidFormat is returned by Init for an unrecognized film format.
	ErrInvalidFormat = film.ErrInvalidFormat
	// ErrNotInitialized is returned when Find runs before Init or a
	// successful bootstrap has established the perforation template.
	ErrNotInitialized = errors.New("perforation detection not initialized")
	// ErrSequence is returned when left-edge refinement is requested before
	// the vertical position was found.
	ErrSequence = errors.New("left edge requested before vertical perforation was found")
)
