package registration

import "math"

// Pixels-per-step band accepted from calibration.
const (
	MinPixelsPerStep = 0.25
	MaxPixelsPerStep = 10.0
)

// Settings tune the servo and calibration routines.
type Settings struct {
	// Deadband is the largest |yDiff| treated as centered.
	Deadband int
	// MaxCenterIterations caps the captures spent in CenterFrame.
	MaxCenterIterations int
	// MinStep is the smallest corrective move.
	MinStep int
	// UncalibratedPixelsPerStep is assumed before calibration.
	UncalibratedPixelsPerStep float64
	// LostStepFraction of a frame is advanced when no perforation is seen.
	LostStepFraction float64
	CoarseStep       int
	FineStep         int
	// CalibrationFrames is the number of frame measurements per direction.
	CalibrationFrames int
	// MaxCalibrationFailures consecutive misses abort calibration.
	MaxCalibrationFailures int
	// MaxSearchSteps bounds each search phase of calibration, in multiples
	// of the coarse or fine step.
	MaxSearchSteps int
	// TensionSteps are driven against each other before calibration.
	TensionSteps int
}

// DefaultSettings returns the tunables used by the reference rig.
func DefaultSettings() Settings {
	return Settings{
		Deadband:                  5,
		MaxCenterIterations:       10,
		MinStep:                   5,
		UncalibratedPixelsPerStep: 8,
		LostStepFraction:          0.2,
		CoarseStep:                50,
		FineStep:                  10,
		CalibrationFrames:         18,
		MaxCalibrationFailures:    3,
		MaxSearchSteps:            100,
		TensionSteps:              200,
	}
}

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.Deadband <= 0 {
		s.Deadband = def.Deadband
	}
	if s.MaxCenterIterations <= 0 {
		s.MaxCenterIterations = def.MaxCenterIterations
	}
	if s.MinStep <= 0 {
		s.MinStep = def.MinStep
	}
	if s.UncalibratedPixelsPerStep <= 0 {
		s.UncalibratedPixelsPerStep = def.UncalibratedPixelsPerStep
	}
	if s.LostStepFraction <= 0 || s.LostStepFraction > 1 {
		s.LostStepFraction = def.LostStepFraction
	}
	if s.CoarseStep <= 0 {
		s.CoarseStep = def.CoarseStep
	}
	if s.FineStep <= 0 {
		s.FineStep = def.FineStep
	}
	if s.CalibrationFrames <= 0 {
		s.CalibrationFrames = def.CalibrationFrames
	}
	if s.MaxCalibrationFailures <= 0 {
		s.MaxCalibrationFailures = def.MaxCalibrationFailures
	}
	if s.MaxSearchSteps <= 0 {
		s.MaxSearchSteps = def.MaxSearchSteps
	}
	if s.TensionSteps < 0 {
		s.TensionSteps = 0
	}
	return s
}

// Profile is the calibrated relation between motor steps and film travel.
type Profile struct {
	StepsForward  int
	StepsBackward int
	PixelsPerStep float64
}

// Calibrated reports whether both step counts are known.
func (p Profile) Calibrated() bool {
	return p.StepsForward > 0 && p.StepsBackward > 0
}

// ClampPixelsPerStep restricts v to the accepted band. NaN and infinities
// map to the lower bound.
func ClampPixelsPerStep(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < MinPixelsPerStep {
		return MinPixelsPerStep
	}
	if v > MaxPixelsPerStep {
		return MaxPixelsPerStep
	}
	return v
}
