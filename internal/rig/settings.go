package rig

import (
	"time"

	"telecine/internal/camera"
	"telecine/internal/config"
	"telecine/internal/hardware"
	"telecine/internal/perforation"
	"telecine/internal/registration"
	"telecine/internal/transport"
)

// DetectorSettings maps the [detector] section.
func DetectorSettings(cfg *config.Config) (perforation.Settings, error) {
	edges, err := perforation.ParseCheckEdges(cfg.Detector.CheckEdges)
	if err != nil {
		return perforation.Settings{}, err
	}
	return perforation.Settings{
		SizeMargin:        cfg.Detector.SizeMargin,
		ThresholdFraction: cfg.Detector.ThresholdFraction,
		ROIHeightFraction: cfg.Detector.ROIHeightFraction,
		CheckEdges:        edges,
		CheckLeftEdge:     cfg.Detector.CheckLeftEdge,
	}, nil
}

// TransportSettings maps the [transport] section.
func TransportSettings(cfg *config.Config) transport.Settings {
	return transport.Settings{
		TensionPeriod: cfg.Transport.TensionPeriod,
		TakeupPeriod:  cfg.Transport.TakeupPeriod,
		SpoolPeriod:   cfg.Transport.SpoolPeriod,
		FourStepper:   cfg.Transport.FourStepper,
	}
}

// RegistrationSettings maps the servo tunables of [registration].
func RegistrationSettings(cfg *config.Config) registration.Settings {
	s := registration.DefaultSettings()
	r := cfg.Registration
	set := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	set(&s.Deadband, r.Deadband)
	set(&s.MaxCenterIterations, r.MaxCenterIterations)
	set(&s.MinStep, r.MinStep)
	set(&s.CoarseStep, r.CoarseStep)
	set(&s.FineStep, r.FineStep)
	set(&s.CalibrationFrames, r.CalibrationFrames)
	set(&s.MaxCalibrationFailures, r.MaxCalibrationFailures)
	set(&s.TensionSteps, cfg.Transport.TensionSteps)
	return s
}

// Profile returns the stored calibration.
func Profile(cfg *config.Config) registration.Profile {
	return registration.Profile{
		StepsForward:  cfg.Registration.StepsForward,
		StepsBackward: cfg.Registration.StepsBackward,
		PixelsPerStep: registration.ClampPixelsPerStep(cfg.Registration.PixelsPerStep),
	}
}

// CameraSettings maps the [camera] section.
func CameraSettings(cfg *config.Config) camera.Settings {
	return camera.Settings{
		Device:        cfg.Camera.Device,
		Width:         cfg.Camera.Width,
		Height:        cfg.Camera.Height,
		Exposure:      cfg.Camera.Exposure,
		BracketFactor: cfg.Camera.BracketFactor,
		SettleFrames:  cfg.Camera.SettleFrames,
	}
}

func stepperTiming(cfg *config.Config) hardware.Timing {
	return hardware.Timing{
		Pulse:    time.Duration(cfg.Transport.StepPulseUS) * time.Microsecond,
		Interval: time.Duration(cfg.Transport.StepIntervalUS) * time.Microsecond,
	}
}
