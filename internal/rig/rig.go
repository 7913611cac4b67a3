package rig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"telecine/internal/camera"
	"telecine/internal/camera/opencv"
	"telecine/internal/config"
	"telecine/internal/film"
	"telecine/internal/logging"
	"telecine/internal/perforation"
	"telecine/internal/registration"
	"telecine/internal/simulator"
	"telecine/internal/transport"
)

// Options select how the rig is built.
type Options struct {
	// Simulate replaces the GPIO transport and the camera with a virtual
	// film strip.
	Simulate bool
	Logger   *slog.Logger
}

// Rig is an assembled telecine.
type Rig struct {
	Format       film.Format
	Transport    *transport.Controller
	Camera       camera.Camera
	Detector     *perforation.Detector
	Registration *registration.Loop
	// Simulator is set when the rig runs without hardware.
	Simulator *simulator.Film

	cfg    *config.Config
	logger *slog.Logger
}

// Open builds every component from cfg. The caller must Close the rig.
func Open(cfg *config.Config, opts Options) (*Rig, error) {
	format, err := film.ParseFormat(cfg.Film.Format)
	if err != nil {
		return nil, err
	}
	detSettings, err := DetectorSettings(cfg)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Rig{Format: format, cfg: cfg, logger: logging.NewComponentLogger(logger, "rig")}

	var (
		motors    transport.Motors
		imageSize = film.Size{W: cfg.Camera.Width, H: cfg.Camera.Height}
		expected  = film.Size{W: cfg.Detector.PerforationWidth, H: cfg.Detector.PerforationHeight}
		centerX   = cfg.Detector.CenterX
	)
	if opts.Simulate {
		sim := simulator.DefaultSettings()
		sim.Format = format
		r.Simulator = simulator.New(sim)
		r.Camera = r.Simulator
		motors = r.Simulator.Motors()
		imageSize = sim.ImageSize
		if !cfg.HasTemplate() {
			expected, centerX = sim.Perforation, sim.CenterX
		}
		r.logger.Info("using simulated film strip", logging.String("format", format.String()))
	} else {
		motors, err = OpenMotors(cfg)
		if err != nil {
			return nil, err
		}
	}

	r.Transport, err = transport.New(motors, TransportSettings(cfg), logger)
	if err != nil {
		return nil, err
	}

	if r.Camera == nil {
		cam, err := opencv.Open(CameraSettings(cfg), logger)
		if err != nil {
			_ = r.Transport.Close()
			return nil, err
		}
		r.Camera = cam
	}

	r.Detector = perforation.New(detSettings, logger)
	if err := r.Detector.Init(format, imageSize, expected, centerX); err != nil {
		_ = r.Close()
		return nil, err
	}
	r.Registration = registration.New(r.Camera, r.Detector, r.Transport,
		RegistrationSettings(cfg), Profile(cfg), logger)
	return r, nil
}

// Close releases the transport and the camera.
func (r *Rig) Close() error {
	var errs []error
	if r.Transport != nil {
		errs = append(errs, r.Transport.Close())
	}
	if r.Camera != nil {
		errs = append(errs, r.Camera.Close())
	}
	return errors.Join(errs...)
}

// Locate bootstraps the detector from a point inside a perforation on a
// fresh capture and records the measured template in the configuration.
func (r *Rig) Locate(ctx context.Context, at film.Point, window int) (perforation.Result, error) {
	if err := r.Transport.LampOn(); err != nil {
		return perforation.Result{}, fmt.Errorf("lamp on: %w", err)
	}
	img, err := r.Camera.Capture(ctx)
	if err != nil {
		return perforation.Result{}, fmt.Errorf("capture: %w", err)
	}
	return r.LocateIn(img, at, window)
}

// LocateIn is Locate on an image already at hand, such as a saved frame.
func (r *Rig) LocateIn(img *film.Image, at film.Point, window int) (perforation.Result, error) {
	res, err := r.Detector.FindFirstFromCoords(img, at, window)
	if err != nil {
		return res, err
	}
	if !res.Found {
		return res, ErrNoPerforation
	}
	r.StoreTemplate()
	return res, nil
}

// StoreTemplate copies the detector's template into the configuration.
func (r *Rig) StoreTemplate() {
	size := r.Detector.Template().ExpectedSize
	r.cfg.Detector.PerforationWidth = size.W
	r.cfg.Detector.PerforationHeight = size.H
	r.cfg.Detector.CenterX = r.Detector.CenterX()
}

// StoreProfile copies the registration profile into the configuration.
func (r *Rig) StoreProfile() {
	p := r.Registration.Profile()
	r.cfg.Registration.StepsForward = p.StepsForward
	r.cfg.Registration.StepsBackward = p.StepsBackward
	r.cfg.Registration.PixelsPerStep = p.PixelsPerStep
}

// Save writes the configuration, including stored results, to path.
func (r *Rig) Save(path string) error {
	if err := r.cfg.Save(path); err != nil {
		return err
	}
	r.logger.Info("configuration saved", logging.String("path", path))
	return nil
}

// ErrNoPerforation is returned by Locate when the point is not inside a hole.
var ErrNoPerforation = errors.New("no perforation at the given position")
