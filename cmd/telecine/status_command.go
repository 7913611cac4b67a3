package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"telecine/internal/hwlock"
	"telecine/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show setup, calibration and environment checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Rig", colorize)

			lines = append(lines, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			lines = append(lines, renderStatusLine("Film format", statusInfo, cfg.Film.Format, colorize))
			if cfg.HasTemplate() {
				lines = append(lines, renderStatusLine("Perforation", statusOK,
					fmt.Sprintf("%dx%d at x=%d", cfg.Detector.PerforationWidth, cfg.Detector.PerforationHeight, cfg.Detector.CenterX), colorize))
			} else {
				lines = append(lines, renderStatusLine("Perforation", statusWarn, "not set up; run `telecine setup`", colorize))
			}
			reg := cfg.Registration
			lines = append(lines, renderStatusLine("Calibration", statusOK,
				fmt.Sprintf("%d fwd, %d back, %.2f px/step", reg.StepsForward, reg.StepsBackward, reg.PixelsPerStep), colorize))
			lines = append(lines, lockStatus(cfg.LockPath(), colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Environment", colorize)...)
			for _, r := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func lockStatus(path string, colorize bool) string {
	lock, err := hwlock.Acquire(path)
	switch {
	case errors.Is(err, hwlock.ErrBusy):
		return renderStatusLine("Transport", statusWarn, "in use by another process", colorize)
	case err != nil:
		return renderStatusLine("Transport", statusError, err.Error(), colorize)
	}
	_ = lock.Release()
	return renderStatusLine("Transport", statusOK, "idle", colorize)
}
