package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Film selects the gauge being scanned.
type Film struct {
	Format string `toml:"format"`
}

// Detector holds the perforation template recorded by setup and the
// detection tunables.
type Detector struct {
	PerforationWidth  int     `toml:"perforation_width"`
	PerforationHeight int     `toml:"perforation_height"`
	CenterX           int     `toml:"center_x"`
	SizeMargin        float64 `toml:"size_margin"`
	ThresholdFraction float64 `toml:"threshold_fraction"`
	ROIHeightFraction float64 `toml:"roi_height_fraction"`
	CheckEdges        string  `toml:"check_edges"`
	CheckLeftEdge     bool    `toml:"check_left_edge"`
}

// Crop positions the saved frame relative to the perforation center.
type Crop struct {
	OffsetX int `toml:"offset_x"`
	OffsetY int `toml:"offset_y"`
	Width   int `toml:"width"`
	Height  int `toml:"height"`
}

// Transport configures the film path motors.
type Transport struct {
	FourStepper    bool `toml:"four_stepper"`
	TensionPeriod  int  `toml:"tension_period"`
	TakeupPeriod   int  `toml:"takeup_period"`
	SpoolPeriod    int  `toml:"spool_period"`
	StepPulseUS    int  `toml:"step_pulse_us"`
	StepIntervalUS int  `toml:"step_interval_us"`
	ReelPulseMS    int  `toml:"reel_pulse_ms"`
	TensionSteps   int  `toml:"tension_steps"`
}

// Pins names the GPIO lines driving each motor, as known to the host's GPIO
// registry (for example "GPIO17").
type Pins struct {
	FeedStep     string `toml:"feed_step"`
	FeedDir      string `toml:"feed_dir"`
	FeedEnable   string `toml:"feed_enable"`
	PullStep     string `toml:"pull_step"`
	PullDir      string `toml:"pull_dir"`
	PullEnable   string `toml:"pull_enable"`
	SupplyStep   string `toml:"supply_step"`
	SupplyDir    string `toml:"supply_dir"`
	SupplyEnable string `toml:"supply_enable"`
	TakeupStep   string `toml:"takeup_step"`
	TakeupDir    string `toml:"takeup_dir"`
	TakeupEnable string `toml:"takeup_enable"`
	SupplyReel   string `toml:"supply_reel"`
	TakeupReel   string `toml:"takeup_reel"`
	Lamp         string `toml:"lamp"`
}

// Registration holds the calibration profile and servo tunables.
type Registration struct {
	StepsForward           int     `toml:"steps_forward"`
	StepsBackward          int     `toml:"steps_backward"`
	PixelsPerStep          float64 `toml:"pixels_per_step"`
	Deadband               int     `toml:"deadband"`
	MaxCenterIterations    int     `toml:"max_center_iterations"`
	MinStep                int     `toml:"min_step"`
	CoarseStep             int     `toml:"coarse_step"`
	FineStep               int     `toml:"fine_step"`
	CalibrationFrames      int     `toml:"calibration_frames"`
	MaxCalibrationFailures int     `toml:"max_calibration_failures"`
}

// Job describes the capture run.
type Job struct {
	Name                   string `toml:"name"`
	StartFrame             int    `toml:"start_frame"`
	EndFrame               int    `toml:"end_frame"`
	Reverse                bool   `toml:"reverse"`
	Bracket                bool   `toml:"bracket"`
	MaxConsecutiveFailures int    `toml:"max_consecutive_failures"`
	Extension              string `toml:"extension"`
	QueueCapacity          int    `toml:"queue_capacity"`
	MinFreeGiB             int    `toml:"min_free_gib"`
}

// Camera configures the capture device.
type Camera struct {
	Device        int     `toml:"device"`
	Width         int     `toml:"width"`
	Height        int     `toml:"height"`
	Exposure      float64 `toml:"exposure"`
	BracketFactor float64 `toml:"bracket_factor"`
	SettleFrames  int     `toml:"settle_frames"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	JobStart       bool   `toml:"job_start"`
	JobComplete    bool   `toml:"job_complete"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for a telecine rig and the
// job currently loaded on it.
//
// Configuration sections by subsystem:
//   - Paths: output, state (ledger and lock) and log directories
//   - Film: gauge selection
//   - Detector: perforation template and detection tunables
//   - Crop: saved frame geometry relative to the perforation
//   - Transport: motor arrangement and timing
//   - Pins: GPIO line names
//   - Registration: calibration profile and servo tunables
//   - Job: frame range and output options
//   - Camera: capture device settings
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Film          Film          `toml:"film"`
	Detector      Detector      `toml:"detector"`
	Crop          Crop          `toml:"crop"`
	Transport     Transport     `toml:"transport"`
	Pins          Pins          `toml:"pins"`
	Registration  Registration  `toml:"registration"`
	Job           Job           `toml:"job"`
	Camera        Camera        `toml:"camera"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Save writes the configuration to path, replacing the previous file
// atomically. Setup and calibration results are persisted this way.
func (c *Config) Save(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("save config: empty path")
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".telecine-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("telecine.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath is the SQLite job ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LockPath is the file guarding exclusive use of the transport.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "transport.lock")
}

// Calibrated reports whether a steps-per-frame profile has been recorded.
func (c *Config) Calibrated() bool {
	return c.Registration.StepsForward > 0 && c.Registration.StepsBackward > 0
}

// HasTemplate reports whether setup recorded a perforation template.
func (c *Config) HasTemplate() bool {
	return c.Detector.PerforationWidth > 0 && c.Detector.PerforationHeight > 0
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
