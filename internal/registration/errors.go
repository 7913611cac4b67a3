package registration

import "errors"

var (
	// ErrCalibrationFailed is returned when calibration gives up after
	// repeated detection misses. The accompanying step count is zero.
	ErrCalibrationFailed = errors.New("calibration failed")
	// ErrNotCalibrated is returned by frame moves that need a profile.
	ErrNotCalibrated = errors.New("transport not calibrated")
)
