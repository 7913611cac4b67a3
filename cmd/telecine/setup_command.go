package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"telecine/internal/capture"
	"telecine/internal/config"
	"telecine/internal/film"
	"telecine/internal/imageio"
	"telecine/internal/perforation"
	"telecine/internal/rig"
	"telecine/internal/textutil"
)

func newSetupCommand(ctx *commandContext) *cobra.Command {
	var (
		x, y      int
		window    int
		autoCrop  bool
		imagePath string
		snapshot  string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Record the perforation template from a point inside a hole",
		Long: "Measure the perforation around --x/--y on a fresh capture (or on --image) and save\n" +
			"its size and center line. With --auto-crop the crop is derived from the gauge.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			at := film.Point{X: x, Y: y}
			out := cmd.OutOrStdout()

			return ctx.withRig(func(r *rig.Rig) error {
				var (
					res perforation.Result
					img *film.Image
					err error
				)
				if path := strings.TrimSpace(imagePath); path != "" {
					img, err = imageio.Read(path)
					if err != nil {
						return err
					}
				} else {
					if err := r.Transport.LampOn(); err != nil {
						return fmt.Errorf("lamp on: %w", err)
					}
					img, err = r.Camera.Capture(cmd.Context())
					if err != nil {
						return fmt.Errorf("capture: %w", err)
					}
				}
				if name := strings.TrimSpace(snapshot); name != "" {
					path := filepath.Join(cfg.Paths.OutputDir, textutil.SanitizeFileName(name)+".png")
					if err := imageio.NewWriter().Write(path, img); err != nil {
						return err
					}
					fmt.Fprintf(out, "Saved snapshot to %s\n", path)
				}
				res, err = r.LocateIn(img, at, window)
				if err != nil {
					return err
				}

				size := r.Detector.Template().ExpectedSize
				fmt.Fprintf(out, "Perforation %dx%d centered at (%d, %d)\n", size.W, size.H, res.Center.X, res.Center.Y)
				if autoCrop {
					crop := capture.AutoCrop(r.Format, size)
					cfg.Crop = config.Crop{OffsetX: crop.OffsetX, OffsetY: crop.OffsetY, Width: crop.Width, Height: crop.Height}
					fmt.Fprintf(out, "Crop %dx%d at offset (%d, %d)\n", crop.Width, crop.Height, crop.OffsetX, crop.OffsetY)
				}
				if err := ctx.saveConfig(r); err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved template to %s\n", ctx.configPath)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&x, "x", 0, "X coordinate inside a perforation")
	cmd.Flags().IntVar(&y, "y", 0, "Y coordinate inside a perforation")
	cmd.Flags().IntVar(&window, "window", 10, "Width of the sampling window in pixels")
	cmd.Flags().BoolVar(&autoCrop, "auto-crop", false, "Derive the crop from the film gauge")
	cmd.Flags().StringVar(&imagePath, "image", "", "Locate on a saved image instead of a fresh capture")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Also save the image used under this name in the output directory")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}
