package testsupport

import (
	"path/filepath"
	"testing"

	"telecine/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The perforation template matches the simulator defaults.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Detector.PerforationWidth = 46
	cfgVal.Detector.PerforationHeight = 58
	cfgVal.Detector.CenterX = 60
	cfgVal.Camera.Width = 400
	cfgVal.Camera.Height = 600
	cfgVal.Job.Name = "test"
	cfgVal.Job.MinFreeGiB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithJob sets the job name and inclusive frame range.
func WithJob(name string, start, end int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Job.Name = name
		b.cfg.Job.StartFrame = start
		b.cfg.Job.EndFrame = end
	}
}

// WithNotifyTopic points notifications at a topic URL.
func WithNotifyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithProfile records a calibration profile.
func WithProfile(forward, backward int, pixelsPerStep float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Registration.StepsForward = forward
		b.cfg.Registration.StepsBackward = backward
		b.cfg.Registration.PixelsPerStep = pixelsPerStep
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
