package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFilm()
	c.normalizeDetector()
	c.normalizeTransport()
	c.normalizeRegistration()
	c.normalizeJob()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFilm() {
	c.Film.Format = strings.ToLower(strings.TrimSpace(c.Film.Format))
	if c.Film.Format == "" {
		c.Film.Format = defaultFilmFormat
	}
}

func (c *Config) normalizeDetector() {
	c.Detector.CheckEdges = strings.ToLower(strings.TrimSpace(c.Detector.CheckEdges))
	if c.Detector.CheckEdges == "" {
		c.Detector.CheckEdges = defaultCheckEdges
	}
	if c.Detector.SizeMargin == 0 {
		c.Detector.SizeMargin = defaultSizeMargin
	}
	if c.Detector.ThresholdFraction == 0 {
		c.Detector.ThresholdFraction = defaultThresholdFraction
	}
	if c.Detector.ROIHeightFraction == 0 {
		c.Detector.ROIHeightFraction = defaultROIHeightFraction
	}
}

func (c *Config) normalizeTransport() {
	if c.Transport.TensionPeriod == 0 {
		c.Transport.TensionPeriod = defaultTensionPeriod
	}
	if c.Transport.TakeupPeriod == 0 {
		c.Transport.TakeupPeriod = defaultTakeupPeriod
	}
	if c.Transport.SpoolPeriod == 0 {
		c.Transport.SpoolPeriod = defaultSpoolPeriod
	}
	if c.Transport.StepPulseUS <= 0 {
		c.Transport.StepPulseUS = defaultStepPulseUS
	}
	if c.Transport.StepIntervalUS < 0 {
		c.Transport.StepIntervalUS = 0
	}
	if c.Transport.ReelPulseMS <= 0 {
		c.Transport.ReelPulseMS = defaultReelPulseMS
	}
	if c.Transport.TensionSteps <= 0 {
		c.Transport.TensionSteps = defaultTensionSteps
	}
}

func (c *Config) normalizeRegistration() {
	r := &c.Registration
	if r.Deadband <= 0 {
		r.Deadband = defaultDeadband
	}
	if r.MaxCenterIterations <= 0 {
		r.MaxCenterIterations = defaultMaxCenterIterations
	}
	if r.MinStep <= 0 {
		r.MinStep = defaultMinStep
	}
	if r.CoarseStep <= 0 {
		r.CoarseStep = defaultCoarseStep
	}
	if r.FineStep <= 0 {
		r.FineStep = defaultFineStep
	}
	if r.CalibrationFrames <= 0 {
		r.CalibrationFrames = defaultCalibrationFrames
	}
	if r.MaxCalibrationFailures <= 0 {
		r.MaxCalibrationFailures = defaultMaxCalibrationFailure
	}
}

func (c *Config) normalizeJob() {
	c.Job.Name = strings.TrimSpace(c.Job.Name)
	c.Job.Extension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Job.Extension), "."))
	switch c.Job.Extension {
	case "":
		c.Job.Extension = defaultExtension
	case "jpeg":
		c.Job.Extension = "jpg"
	}
	if c.Job.MaxConsecutiveFailures == 0 {
		c.Job.MaxConsecutiveFailures = defaultMaxConsecutiveFailure
	}
	if c.Job.QueueCapacity == 0 {
		c.Job.QueueCapacity = defaultQueueCapacity
	}
	if c.Camera.BracketFactor == 0 {
		c.Camera.BracketFactor = defaultBracketFactor
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("TELECINE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
