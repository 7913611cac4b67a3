package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"telecine/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "telecine", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "telecine") {
		t.Fatalf("unexpected output dir %q", cfg.Paths.OutputDir)
	}
	if cfg.LedgerPath() != filepath.Join(tempHome, ".local", "share", "telecine", "ledger.db") {
		t.Fatalf("unexpected ledger path %q", cfg.LedgerPath())
	}
	if cfg.Film.Format != "super8" || cfg.Job.Extension != "png" || cfg.Job.QueueCapacity != 5 {
		t.Fatalf("unexpected defaults: %+v %+v", cfg.Film, cfg.Job)
	}
	if cfg.HasTemplate() {
		t.Fatal("expected no perforation template by default")
	}
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	want := config.Default()
	if cfg.Transport != want.Transport || cfg.Registration != want.Registration || cfg.Pins != want.Pins {
		t.Fatalf("sample config disagrees with defaults:\n%+v\n%+v", cfg.Transport, want.Transport)
	}
}

func TestSaveRoundTripsCalibration(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "job", "telecine.toml")

	cfg := config.Default()
	cfg.Film.Format = "std8"
	cfg.Detector.PerforationWidth = 90
	cfg.Detector.PerforationHeight = 62
	cfg.Detector.CenterX = 120
	cfg.Crop = config.Crop{OffsetX: 40, OffsetY: -300, Width: 1200, Height: 880}
	cfg.Registration.StepsForward = 312
	cfg.Registration.StepsBackward = 305
	cfg.Registration.PixelsPerStep = 2.875
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected saved config to exist")
	}
	if loaded.Registration.StepsForward != 312 || loaded.Registration.StepsBackward != 305 || loaded.Registration.PixelsPerStep != 2.875 {
		t.Fatalf("calibration not preserved: %+v", loaded.Registration)
	}
	if loaded.Crop != cfg.Crop || loaded.Detector.CenterX != 120 || !loaded.HasTemplate() {
		t.Fatalf("setup not preserved: %+v %+v", loaded.Crop, loaded.Detector)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file to be replaced, found %d entries", len(entries))
	}
}

func TestLoadNormalizesValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"film":      map[string]any{"format": " STD8 "},
		"job":       map[string]any{"extension": ".JPEG", "name": "  Holiday 1974 "},
		"detector":  map[string]any{"check_edges": "Top"},
		"logging":   map[string]any{"format": "yaml", "level": "DEBUG"},
		"transport": map[string]any{"step_interval_us": -5},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Film.Format != "std8" || cfg.Job.Extension != "jpg" || cfg.Job.Name != "Holiday 1974" {
		t.Fatalf("unexpected normalization: %+v %+v", cfg.Film, cfg.Job)
	}
	if cfg.Detector.CheckEdges != "top" {
		t.Fatalf("expected check_edges top, got %q", cfg.Detector.CheckEdges)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
	if cfg.Transport.StepIntervalUS != 0 {
		t.Fatalf("expected negative interval clamped, got %d", cfg.Transport.StepIntervalUS)
	}
}

func TestValidateNamesOffendingKey(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		key    string
	}{
		{"format", func(c *config.Config) { c.Film.Format = "16mm" }, "film.format"},
		{"half template", func(c *config.Config) { c.Detector.PerforationWidth = 40 }, "detector.perforation_width"},
		{"pixels per step", func(c *config.Config) { c.Registration.PixelsPerStep = 12 }, "registration.pixels_per_step"},
		{"extension", func(c *config.Config) { c.Job.Extension = "tiff" }, "job.extension"},
		{"edges", func(c *config.Config) { c.Detector.CheckEdges = "left" }, "detector.check_edges"},
		{"bracket", func(c *config.Config) { c.Camera.BracketFactor = 1 }, "camera.bracket_factor"},
		{"four stepper pins", func(c *config.Config) {
			c.Transport.FourStepper = true
			c.Pins.SupplyStep = ""
		}, "pins.supply_step"},
		{"failures", func(c *config.Config) { c.Job.MaxConsecutiveFailures = -1 }, "job.max_consecutive_failures"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Fatalf("expected error to mention %s, got %v", tc.key, err)
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
