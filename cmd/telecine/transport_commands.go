package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"telecine/internal/rig"
	"telecine/internal/textutil"
	"telecine/internal/transport"
)

func newTransportCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newCenterCommand(ctx),
		newStepCommand(ctx),
		newTensionCommand(ctx),
		newWindCommand(ctx, "wind", transport.Forward, "Wind the film onto the takeup spool"),
		newWindCommand(ctx, "rewind", transport.Backward, "Wind the film back onto the supply spool"),
		newLightCommand(ctx),
	}
}

func newCenterCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "center",
		Short: "Bring the nearest perforation onto the reference row",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withRig(func(r *rig.Rig) error {
				if err := r.Transport.LampOn(); err != nil {
					return fmt.Errorf("lamp on: %w", err)
				}
				res, err := r.Registration.CenterFrame(cmd.Context(), cfg.Calibrated())
				if err != nil {
					return err
				}
				if !res.Found {
					return errors.New("perforation not found")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Centered: perforation at (%d, %d), %d px from reference\n",
					res.Center.X, res.Center.Y, res.YDiff)
				return nil
			})
		},
	}
}

func newStepCommand(ctx *commandContext) *cobra.Command {
	var frames, steps int
	var back bool

	cmd := &cobra.Command{
		Use:   "step",
		Short: "Move the film by whole frames or raw motor steps",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (frames > 0) == (steps > 0) {
				return errors.New("give exactly one of --frames or --steps")
			}
			dir := textutil.Ternary(back, transport.Backward, transport.Forward)
			out := cmd.OutOrStdout()
			return ctx.withRig(func(r *rig.Rig) error {
				if steps > 0 {
					if err := r.Transport.Step(dir, steps); err != nil {
						return err
					}
					fmt.Fprintf(out, "Moved %d steps %s\n", steps, dir)
					return nil
				}
				if err := r.Transport.LampOn(); err != nil {
					return fmt.Errorf("lamp on: %w", err)
				}
				res, err := r.Registration.FastWind(cmd.Context(), frames, dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Moved %d frames %s; perforation %s\n", frames, dir,
					textutil.Ternary(res.Found, "centered", "not found"))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&frames, "frames", 0, "Number of frames to move")
	cmd.Flags().IntVar(&steps, "steps", 0, "Number of motor steps to move")
	cmd.Flags().BoolVar(&back, "back", false, "Move backwards")
	return cmd
}

func newTensionCommand(ctx *commandContext) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "tension",
		Short: "Take up slack between the feed and pull sprockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if steps <= 0 {
				steps = cfg.Transport.TensionSteps
			}
			return ctx.withRig(func(r *rig.Rig) error {
				if err := r.Transport.TensionFilm(steps); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tensioned film with %d steps\n", steps)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 0, "Tension pulses (default from config)")
	return cmd
}

func newWindCommand(ctx *commandContext, use string, dir transport.Direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short + " until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRig(func(r *rig.Rig) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Winding; press Ctrl-C to stop")
				return r.Transport.Wind(cmd.Context(), dir)
			})
		},
	}
}

func newLightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "light",
		Short: "Switch the lamp on until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRig(func(r *rig.Rig) error {
				if err := r.Transport.LampOn(); err != nil {
					return fmt.Errorf("lamp on: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Lamp on; press Ctrl-C to switch off")
				<-cmd.Context().Done()
				return nil
			})
		},
	}
}
