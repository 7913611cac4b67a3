package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"telecine/internal/logging"
	"telecine/internal/notifications"
	"telecine/internal/rig"
)

func newCalibrateCommand(ctx *commandContext) *cobra.Command {
	var samples int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure steps per frame in both directions and save the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			notifier := notifications.NewService(cfg)

			return ctx.withRig(func(r *rig.Rig) error {
				if err := r.Transport.LampOn(); err != nil {
					return fmt.Errorf("lamp on: %w", err)
				}
				profile, err := r.Registration.CalibrateTransport(cmd.Context())
				if err != nil {
					notifyError(ctx, notifier, "calibration", err)
					return err
				}
				if samples > 0 {
					if _, err := r.Registration.MeasurePixelsPerStep(cmd.Context(), samples); err != nil {
						return err
					}
					profile = r.Registration.Profile()
				}

				fmt.Fprintf(out, "Steps forward:   %d\n", profile.StepsForward)
				fmt.Fprintf(out, "Steps backward:  %d\n", profile.StepsBackward)
				fmt.Fprintf(out, "Pixels per step: %.3f\n", profile.PixelsPerStep)
				if dryRun {
					return nil
				}

				r.StoreProfile()
				if err := ctx.saveConfig(r); err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved profile to %s\n", ctx.configPath)
				payload := notifications.Payload{
					"steps_forward":   profile.StepsForward,
					"steps_backward":  profile.StepsBackward,
					"pixels_per_step": profile.PixelsPerStep,
				}
				if err := notifier.Publish(context.WithoutCancel(cmd.Context()), notifications.EventCalibrationCompleted, payload); err != nil {
					ctx.log().Warn("calibration notification failed", logging.Error(err))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&samples, "measure-samples", 0, "Refine pixels per step from this many jog samples")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the profile without saving it")
	return cmd
}

func notifyError(ctx *commandContext, notifier notifications.Service, what string, cause error) {
	payload := notifications.Payload{"context": what, "error": cause.Error()}
	if err := notifier.Publish(context.Background(), notifications.EventError, payload); err != nil {
		ctx.log().Warn("error notification failed", logging.Error(err))
	}
}
