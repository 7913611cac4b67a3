package capture

import (
	"errors"
	"fmt"
)

// ErrJobAborted is matched by errors.Is against an *AbortError.
var ErrJobAborted = errors.New("capture job aborted")

// AbortError reports where a job gave up after consecutive detection misses.
type AbortError struct {
	Frame    int
	Failures int
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("%s at frame %d after %d consecutive failed detections", ErrJobAborted, e.Frame, e.Failures)
}

func (e *AbortError) Unwrap() error { return ErrJobAborted }
