package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"telecine/internal/config"
	"telecine/internal/fileutil"
	"telecine/internal/hwlock"
	"telecine/internal/logging"
	"telecine/internal/rig"
)

type commandContext struct {
	configFlag   *string
	simulateFlag *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, simulateFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		simulateFlag: simulateFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) simulate() bool {
	return c.simulateFlag != nil && *c.simulateFlag
}

// log returns the process logger. Old log files are pruned the first time it
// is built.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.config)
		if err != nil {
			logger, _ = logging.New(logging.Options{Level: "info"})
			logger.Warn("falling back to console logging", logging.Error(err))
		}
		c.logger = logger
		if c.config != nil {
			logging.CleanupOldLogs(logger, c.config.Paths.LogDir, "*.log", c.config.Logging.RetentionDays)
		}
	})
	return c.logger
}

func (c *commandContext) openRig() (*rig.Rig, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	r, err := rig.Open(cfg, rig.Options{Simulate: c.simulate(), Logger: c.log()})
	if err != nil {
		return nil, fmt.Errorf("open rig: %w", err)
	}
	return r, nil
}

// withRig holds the transport lock and an open rig for the duration of fn.
func (c *commandContext) withRig(fn func(*rig.Rig) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := hwlock.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	r, err := c.openRig()
	if err != nil {
		return err
	}
	runErr := fn(r)
	if closeErr := r.Close(); closeErr != nil {
		c.log().Warn("rig close failed", logging.Error(closeErr))
	}
	return runErr
}

// saveConfig persists setup and calibration results to the file the
// configuration was loaded from.
func (c *commandContext) saveConfig(r *rig.Rig) error {
	if c.configPath == "" {
		return errors.New("no configuration path to save to")
	}
	backup, err := fileutil.Backup(c.configPath)
	if err != nil {
		return err
	}
	if backup != "" {
		c.log().Debug("previous configuration kept", logging.String("path", backup))
	}
	return r.Save(c.configPath)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
