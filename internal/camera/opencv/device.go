package opencv

import (
	"context"
	"fmt"
	"log/slog"

	"gocv.io/x/gocv"

	"telecine/internal/camera"
	"telecine/internal/film"
	"telecine/internal/imageio"
	"telecine/internal/logging"
)

// source is the part of gocv.VideoCapture the device uses.
type source interface {
	Read(m *gocv.Mat) bool
	Grab(skip int) error
	Set(prop gocv.VideoCaptureProperties, param float64)
	Get(prop gocv.VideoCaptureProperties) float64
	Close() error
}

// Device captures from a V4L2 or other OpenCV-supported camera. The driver
// queue is kept at one buffer and flushed before every read, so a frame is
// never older than the last film move.
type Device struct {
	settings camera.Settings
	logger   *slog.Logger
	src      source
	frame    gocv.Mat
	exposure float64
}

var _ camera.Camera = (*Device)(nil)

// Open opens the device and applies the resolution and exposure.
func Open(settings camera.Settings, logger *slog.Logger) (*Device, error) {
	vc, err := gocv.OpenVideoCapture(settings.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", settings.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %d: device not available", settings.Device)
	}
	return newDevice(vc, settings, logger), nil
}

func newDevice(src source, settings camera.Settings, logger *slog.Logger) *Device {
	if settings.BracketFactor <= 1 {
		settings.BracketFactor = camera.DefaultBracketFactor
	}
	d := &Device{
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "camera"),
		src:      src,
		frame:    gocv.NewMat(),
	}
	src.Set(gocv.VideoCaptureBufferSize, 1)
	if settings.Width > 0 && settings.Height > 0 {
		src.Set(gocv.VideoCaptureFrameWidth, float64(settings.Width))
		src.Set(gocv.VideoCaptureFrameHeight, float64(settings.Height))
	}
	if settings.Exposure > 0 {
		d.setExposure(settings.Exposure)
	}
	d.exposure = src.Get(gocv.VideoCaptureExposure)
	d.logger.Info("camera opened",
		logging.Int("device", settings.Device),
		logging.Float64("width", src.Get(gocv.VideoCaptureFrameWidth)),
		logging.Float64("height", src.Get(gocv.VideoCaptureFrameHeight)),
		logging.Float64("exposure", d.exposure))
	return d
}

// Capture drops whatever the driver has queued and reads a fresh frame.
func (d *Device) Capture(ctx context.Context) (*film.Image, error) {
	if d.src == nil {
		return nil, camera.ErrClosed
	}
	if err := d.settle(ctx); err != nil {
		return nil, err
	}
	if ok := d.src.Read(&d.frame); !ok || d.frame.Empty() {
		return nil, fmt.Errorf("read frame from camera %d", d.settings.Device)
	}
	img, err := imageio.FromMat(d.frame)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}

// CaptureBracket reads a frame at the base exposure and one at
// BracketFactor times it. The base exposure is restored and settled before
// returning.
func (d *Device) CaptureBracket(ctx context.Context) (first, second *film.Image, err error) {
	first, err = d.Capture(ctx)
	if err != nil {
		return nil, nil, err
	}
	base := d.exposure
	d.setExposure(base * d.settings.BracketFactor)
	defer func() {
		d.setExposure(base)
		if settleErr := d.settle(ctx); settleErr != nil && err == nil {
			first, second, err = nil, nil, settleErr
		}
	}()
	second, err = d.Capture(ctx)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

func (d *Device) setExposure(value float64) {
	d.src.Set(gocv.VideoCaptureExposure, value)
	d.logger.Debug("exposure set", logging.Float64("exposure", value))
}

// settle discards SettleFrames queued frames, and at least one.
func (d *Device) settle(ctx context.Context) error {
	n := max(d.settings.SettleFrames, 1)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.src.Grab(1); err != nil {
			return fmt.Errorf("flush camera %d: %w", d.settings.Device, err)
		}
	}
	return nil
}

// Close releases the device.
func (d *Device) Close() error {
	if d.src == nil {
		return nil
	}
	d.frame.Close()
	err := d.src.Close()
	d.src = nil
	return err
}
