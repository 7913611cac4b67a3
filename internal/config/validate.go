package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFilm(); err != nil {
		return err
	}
	if err := c.validateDetector(); err != nil {
		return err
	}
	if err := c.validateCrop(); err != nil {
		return err
	}
	if err := c.validateTransport(); err != nil {
		return err
	}
	if err := c.validateRegistration(); err != nil {
		return err
	}
	if err := c.validateJob(); err != nil {
		return err
	}
	if err := c.validateCamera(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validateFilm() error {
	switch c.Film.Format {
	case "super8", "super-8", "s8", "std8", "standard8", "standard-8", "8mm":
		return nil
	default:
		return fmt.Errorf("film.format: unknown film format %q (use super8 or std8)", c.Film.Format)
	}
}

func (c *Config) validateDetector() error {
	d := c.Detector
	if d.PerforationWidth < 0 || d.PerforationHeight < 0 {
		return errors.New("detector.perforation_width and detector.perforation_height must be >= 0")
	}
	if (d.PerforationWidth == 0) != (d.PerforationHeight == 0) {
		return errors.New("detector.perforation_width and detector.perforation_height must be set together")
	}
	if d.CenterX < 0 {
		return errors.New("detector.center_x must be >= 0")
	}
	if d.SizeMargin <= 0 || d.SizeMargin >= 1 {
		return errors.New("detector.size_margin must be between 0 and 1")
	}
	if d.ThresholdFraction <= 0 || d.ThresholdFraction > 1 {
		return errors.New("detector.threshold_fraction must be between 0 and 1")
	}
	if d.ROIHeightFraction <= 0 || d.ROIHeightFraction > 1 {
		return errors.New("detector.roi_height_fraction must be between 0 and 1")
	}
	switch d.CheckEdges {
	case "none", "both", "top", "bottom":
	default:
		return fmt.Errorf("detector.check_edges: unknown mode %q (use none, top or bottom)", d.CheckEdges)
	}
	return nil
}

func (c *Config) validateCrop() error {
	if c.Crop.Width < 0 || c.Crop.Height < 0 {
		return errors.New("crop.width and crop.height must be >= 0")
	}
	return nil
}

func (c *Config) validateTransport() error {
	if err := ensurePositiveMap(map[string]int{
		"transport.tension_period": c.Transport.TensionPeriod,
		"transport.takeup_period":  c.Transport.TakeupPeriod,
		"transport.spool_period":   c.Transport.SpoolPeriod,
	}); err != nil {
		return err
	}
	if c.Transport.FourStepper {
		for key, pin := range map[string]string{
			"pins.supply_step": c.Pins.SupplyStep,
			"pins.supply_dir":  c.Pins.SupplyDir,
			"pins.takeup_step": c.Pins.TakeupStep,
			"pins.takeup_dir":  c.Pins.TakeupDir,
		} {
			if strings.TrimSpace(pin) == "" {
				return fmt.Errorf("%s must be set when transport.four_stepper is true", key)
			}
		}
	}
	return nil
}

func (c *Config) validateRegistration() error {
	r := c.Registration
	if r.StepsForward < 0 || r.StepsBackward < 0 {
		return errors.New("registration.steps_forward and registration.steps_backward must be >= 0")
	}
	if r.PixelsPerStep < 0.25 || r.PixelsPerStep > 10 {
		return errors.New("registration.pixels_per_step must be between 0.25 and 10")
	}
	if r.FineStep > r.CoarseStep {
		return errors.New("registration.fine_step must not exceed registration.coarse_step")
	}
	return nil
}

func (c *Config) validateJob() error {
	if c.Job.MaxConsecutiveFailures <= 0 {
		return errors.New("job.max_consecutive_failures must be positive")
	}
	if c.Job.QueueCapacity <= 0 {
		return errors.New("job.queue_capacity must be positive")
	}
	if c.Job.StartFrame < 0 || c.Job.EndFrame < 0 {
		return errors.New("job.start_frame and job.end_frame must be >= 0")
	}
	if c.Job.MinFreeGiB < 0 {
		return errors.New("job.min_free_gib must be >= 0")
	}
	switch c.Job.Extension {
	case "png", "jpg":
	default:
		return fmt.Errorf("job.extension: unsupported value %q (use png or jpg)", c.Job.Extension)
	}
	return nil
}

func (c *Config) validateCamera() error {
	if c.Camera.Device < 0 {
		return errors.New("camera.device must be >= 0")
	}
	if c.Camera.Width < 0 || c.Camera.Height < 0 {
		return errors.New("camera.width and camera.height must be >= 0")
	}
	if c.Camera.BracketFactor <= 1 {
		return errors.New("camera.bracket_factor must be greater than 1")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
