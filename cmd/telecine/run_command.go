package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"telecine/internal/capture"
	"telecine/internal/config"
	"telecine/internal/imageio"
	"telecine/internal/jobstore"
	"telecine/internal/notifications"
	"telecine/internal/preflight"
	"telecine/internal/rig"
)

type jobOverrides struct {
	name    string
	start   int
	end     int
	reverse bool
	bracket bool
	ext     string
}

func (o jobOverrides) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("name") {
		cfg.Job.Name = strings.TrimSpace(o.name)
	}
	if flags.Changed("start") {
		cfg.Job.StartFrame = o.start
	}
	if flags.Changed("end") {
		cfg.Job.EndFrame = o.end
	}
	if flags.Changed("reverse") {
		cfg.Job.Reverse = o.reverse
	}
	if flags.Changed("bracket") {
		cfg.Job.Bracket = o.bracket
	}
	if flags.Changed("ext") {
		cfg.Job.Extension = o.ext
	}
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var overrides jobOverrides

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Capture the configured frame range",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			overrides.apply(cmd, cfg)
			if !cfg.HasTemplate() && !ctx.simulate() {
				return errors.New("no perforation template recorded; run `telecine setup` first")
			}
			if !cfg.Calibrated() {
				return errors.New("transport not calibrated; run `telecine calibrate` first")
			}

			out := cmd.OutOrStdout()
			if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
				for _, r := range failed {
					fmt.Fprintf(out, "preflight %s: %s\n", r.Name, r.Detail)
				}
				return fmt.Errorf("preflight failed: %d check(s)", len(failed))
			}

			store, err := jobstore.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			return ctx.withRig(func(r *rig.Rig) error {
				runner, err := capture.NewRunner(capture.Options{
					Camera:       r.Camera,
					Detector:     r.Detector,
					Registration: r.Registration,
					Transport:    r.Transport,
					Writer:       imageio.NewWriter(),
					Recorder:     store,
					Notifier:     notifications.NewService(cfg),
					Logger:       ctx.log(),
					JobLogLevel:  cfg.Logging.Level,
				})
				if err != nil {
					return err
				}
				summary, runErr := runner.Run(cmd.Context(), capture.JobFromConfig(cfg))
				printSummary(out, summary)
				return runErr
			})
		},
	}

	cmd.Flags().StringVar(&overrides.name, "name", "", "Job name, used as the output folder")
	cmd.Flags().IntVar(&overrides.start, "start", 0, "First frame number")
	cmd.Flags().IntVar(&overrides.end, "end", 0, "Last frame number")
	cmd.Flags().BoolVar(&overrides.reverse, "reverse", false, "Run the transport backward")
	cmd.Flags().BoolVar(&overrides.bracket, "bracket", false, "Capture two exposures per frame")
	cmd.Flags().StringVar(&overrides.ext, "ext", "", "Output image format (png or jpg)")
	return cmd
}

func printSummary(out io.Writer, s capture.Summary) {
	if s.RunID == "" {
		return
	}
	rows := [][]string{
		{"Run", s.RunID},
		{"Job", s.Job},
		{"Output", s.Dir},
		{"Frames", fmt.Sprintf("%d of %d detected", s.Detected, s.Frames)},
		{"Fallbacks", fmt.Sprintf("%d", s.Fallbacks)},
		{"Last frame", fmt.Sprintf("%d", s.StopFrame)},
		{"Files written", fmt.Sprintf("%d (%d errors)", s.Written, s.WriteErrors)},
		{"Elapsed", s.Duration.Round(time.Millisecond).String()},
		{"Frame time", formatTiming(s.FrameTime)},
		{"Camera time", formatTiming(s.CameraTime)},
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
}

func formatTiming(t capture.Timing) string {
	if t.Count == 0 {
		return "-"
	}
	round := func(d time.Duration) string { return d.Round(time.Millisecond).String() }
	return fmt.Sprintf("avg %s, min %s, max %s", round(t.Average()), round(t.Fastest), round(t.Slowest))
}
