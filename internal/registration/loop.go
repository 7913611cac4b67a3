package registration

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"telecine/internal/film"
	"telecine/internal/logging"
	"telecine/internal/perforation"
	"telecine/internal/transport"
)

// Camera is the part of the capture contract the loop needs.
type Camera interface {
	Capture(ctx context.Context) (*film.Image, error)
}

// Transport is the part of the transport controller the loop needs.
type Transport interface {
	Step(dir transport.Direction, n int) error
	TensionFilm(steps int) error
}

// Loop couples perforation detection to the transport. It owns neither; all
// three are driven from the capture goroutine.
type Loop struct {
	camera    Camera
	detector  *perforation.Detector
	transport Transport
	settings  Settings
	profile   Profile
	logger    *slog.Logger
}

// New constructs a registration loop. The profile may be empty before
// calibration.
func New(cam Camera, detector *perforation.Detector, tr Transport, settings Settings, profile Profile, logger *slog.Logger) *Loop {
	if profile.PixelsPerStep > 0 {
		profile.PixelsPerStep = ClampPixelsPerStep(profile.PixelsPerStep)
	}
	return &Loop{
		camera:    cam,
		detector:  detector,
		transport: tr,
		settings:  settings.withDefaults(),
		profile:   profile,
		logger:    logging.NewComponentLogger(logger, "registration"),
	}
}

// Profile returns the current calibration profile.
func (l *Loop) Profile() Profile { return l.profile }

// SetProfile replaces the calibration profile.
func (l *Loop) SetProfile(p Profile) {
	if p.PixelsPerStep > 0 {
		p.PixelsPerStep = ClampPixelsPerStep(p.PixelsPerStep)
	}
	l.profile = p
}

// Settings returns the tunables in use.
func (l *Loop) Settings() Settings { return l.settings }

// Detect captures a frame and runs the detector on it.
func (l *Loop) Detect(ctx context.Context) (*film.Image, perforation.Result, error) {
	img, err := l.camera.Capture(ctx)
	if err != nil {
		return nil, perforation.Result{}, fmt.Errorf("capture: %w", err)
	}
	res, err := l.detector.Find(img)
	if err != nil {
		return img, res, fmt.Errorf("find perforation: %w", err)
	}
	return img, res, nil
}

// pixelsPerFrame is the frame pitch implied by the detector template.
func (l *Loop) pixelsPerFrame() float64 {
	t := l.detector.Template()
	return float64(t.ExpectedSize.H) * t.Format.FrameHeightMultiplier()
}

func (l *Loop) pixelsPerStep(useCalibrated bool) float64 {
	if useCalibrated && l.profile.PixelsPerStep > 0 {
		return l.profile.PixelsPerStep
	}
	return l.settings.UncalibratedPixelsPerStep
}

// lostStep is the move made when no perforation is visible.
func (l *Loop) lostStep(pps float64) int {
	frame := float64(l.profile.StepsForward)
	if frame <= 0 {
		frame = l.pixelsPerFrame() / pps
	}
	return max(l.settings.MinStep, int(frame*l.settings.LostStepFraction))
}

// CenterFrame moves the film until the perforation sits within the deadband
// of the ROI reference row or the iteration cap is reached. Failing to
// converge is not an error; the last detection is returned and the caller
// continues from the best position reached.
func (l *Loop) CenterFrame(ctx context.Context, useCalibrated bool) (perforation.Result, error) {
	pps := l.pixelsPerStep(useCalibrated)
	var res perforation.Result
	for i := 0; i < l.settings.MaxCenterIterations; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, found, err := l.Detect(ctx)
		if err != nil {
			return found, err
		}
		res = found
		if !res.Found {
			steps := l.lostStep(pps)
			l.logger.Debug("no perforation while centering", logging.Int("steps", steps))
			if err := l.transport.Step(transport.Forward, steps); err != nil {
				return res, err
			}
			continue
		}
		diff := res.YDiff
		if abs(diff) <= l.settings.Deadband {
			l.logger.Debug("frame centered", logging.Int("y_diff", diff), logging.Int("iterations", i+1))
			return res, nil
		}
		steps := max(l.settings.MinStep, int(float64(abs(diff))/pps))
		dir := transport.Forward
		if diff < 0 {
			dir = transport.Backward
		}
		if err := l.transport.Step(dir, steps); err != nil {
			return res, err
		}
	}
	l.logger.Warn("frame not centered",
		logging.Bool("found", res.Found),
		logging.Int("y_diff", res.YDiff),
		logging.Int("iterations", l.settings.MaxCenterIterations))
	return res, nil
}

// CalibrateStepsPerFrame measures the steps needed to move one frame in dir.
// A coarse search steps past the current perforation to the next one, a fine
// search brings it to the reference row, then the estimate is refined over
// frames measurements. The median is returned. After MaxCalibrationFailures
// consecutive misses it returns 0 and ErrCalibrationFailed.
func (l *Loop) CalibrateStepsPerFrame(ctx context.Context, frames int, dir transport.Direction) (int, error) {
	if dir != transport.Forward && dir != transport.Backward {
		return 0, fmt.Errorf("calibrate: invalid direction %v", dir)
	}
	if frames <= 0 {
		frames = l.settings.CalibrationFrames
	}
	log := l.logger.With(logging.String("direction", dir.String()))
	if err := l.transport.TensionFilm(l.settings.TensionSteps); err != nil {
		return 0, err
	}
	res, err := l.CenterFrame(ctx, false)
	if err != nil {
		return 0, err
	}
	if !res.Found {
		return 0, fmt.Errorf("%w: no perforation to start from", ErrCalibrationFailed)
	}

	steps, err := l.searchNextPerforation(ctx, dir)
	if err != nil {
		return 0, err
	}
	pps := ClampPixelsPerStep(l.pixelsPerFrame() / float64(steps))
	l.profile.PixelsPerStep = pps
	log.Info("first frame estimate", logging.Int("steps", steps), logging.Float64("pixels_per_step", pps))

	if err := l.transport.TensionFilm(l.settings.TensionSteps); err != nil {
		return 0, err
	}
	estimate := float64(steps)
	counts := []float64{estimate}
	failures := 0
	for len(counts) < frames {
		if failures >= l.settings.MaxCalibrationFailures {
			log.Warn("calibration aborted", logging.Int("failures", failures), logging.Int("measured", len(counts)))
			return 0, fmt.Errorf("%w: %d consecutive misses", ErrCalibrationFailed, failures)
		}
		if _, err := l.CenterFrame(ctx, true); err != nil {
			return 0, err
		}
		if err := l.transport.Step(dir, int(math.Round(estimate))); err != nil {
			return 0, err
		}
		_, res, err := l.Detect(ctx)
		if err != nil {
			return 0, err
		}
		if !res.Found {
			failures++
			log.Debug("calibration frame missed", logging.Int("failures", failures))
			continue
		}
		failures = 0
		correction := float64(res.YDiff) / pps
		if dir == transport.Forward {
			estimate += correction
		} else {
			estimate -= correction
		}
		counts = append(counts, estimate)
		log.Debug("calibration frame", logging.Int("frame", len(counts)), logging.Float64("steps", estimate))
	}

	result := int(math.Round(median(counts)))
	log.Info("steps per frame",
		logging.Int("steps", result),
		logging.Int("frames", len(counts)),
		logging.Float64("min", slices.Min(counts)),
		logging.Float64("max", slices.Max(counts)))
	return result, nil
}

// searchNextPerforation runs the coarse and fine phases from a centered
// perforation and returns the steps travelled.
func (l *Loop) searchNextPerforation(ctx context.Context, dir transport.Direction) (int, error) {
	steps := 0
	move := func(n int) (perforation.Result, error) {
		if err := ctx.Err(); err != nil {
			return perforation.Result{}, err
		}
		if err := l.transport.Step(dir, n); err != nil {
			return perforation.Result{}, err
		}
		steps += n
		_, res, err := l.Detect(ctx)
		return res, err
	}
	limit := l.settings.MaxSearchSteps

	// Coarse: leave the current perforation, then reacquire the next.
	res := perforation.Result{Found: true}
	var err error
	for i := 0; res.Found; i++ {
		if i >= limit {
			return 0, fmt.Errorf("%w: perforation never left the search window", ErrCalibrationFailed)
		}
		if res, err = move(l.settings.CoarseStep); err != nil {
			return 0, err
		}
	}
	for i := 0; !res.Found; i++ {
		if i >= limit {
			return 0, fmt.Errorf("%w: next perforation not found", ErrCalibrationFailed)
		}
		if res, err = move(l.settings.CoarseStep); err != nil {
			return 0, err
		}
	}

	// Fine: step until the perforation crosses the reference row.
	for i := 0; !crossedReference(res, dir); i++ {
		if i >= limit {
			return 0, fmt.Errorf("%w: fine search did not converge", ErrCalibrationFailed)
		}
		if res, err = move(l.settings.FineStep); err != nil {
			return 0, err
		}
	}
	return steps, nil
}

// crossedReference reports whether a detection has reached the reference row
// moving in dir. A miss carries no usable offset.
func crossedReference(r perforation.Result, dir transport.Direction) bool {
	if !r.Found {
		return false
	}
	if dir == transport.Forward {
		return r.YDiff <= 0
	}
	return r.YDiff >= 0
}

// CalibrateTransport calibrates both directions and stores the profile. The
// pixels-per-step ratio is the mean of the two directions.
func (l *Loop) CalibrateTransport(ctx context.Context) (Profile, error) {
	frames := l.settings.CalibrationFrames
	fwd, err := l.CalibrateStepsPerFrame(ctx, frames, transport.Forward)
	if err != nil {
		return l.profile, fmt.Errorf("calibrate forward: %w", err)
	}
	ppf := l.pixelsPerFrame()
	pxFwd := ppf / float64(fwd)
	back, err := l.CalibrateStepsPerFrame(ctx, frames, transport.Backward)
	if err != nil {
		l.profile.StepsForward = fwd
		l.profile.PixelsPerStep = ClampPixelsPerStep(pxFwd)
		return l.profile, fmt.Errorf("calibrate backward: %w", err)
	}
	pxBack := ppf / float64(back)
	l.profile = Profile{
		StepsForward:  fwd,
		StepsBackward: back,
		PixelsPerStep: ClampPixelsPerStep((pxFwd + pxBack) / 2),
	}
	l.logger.Info("transport calibrated",
		logging.Int("steps_forward", fwd),
		logging.Int("steps_backward", back),
		logging.Float64("pixels_per_step", l.profile.PixelsPerStep))
	return l.profile, nil
}

// MeasurePixelsPerStep jogs the film forward and back by a fixed step count
// samples times and measures how far the perforation moves. The median ratio
// is stored in the profile.
func (l *Loop) MeasurePixelsPerStep(ctx context.Context, samples int) (float64, error) {
	if samples <= 0 {
		samples = 4
	}
	start, err := l.CenterFrame(ctx, false)
	if err != nil {
		return 0, err
	}
	if !start.Found {
		return 0, fmt.Errorf("%w: no perforation to measure", ErrCalibrationFailed)
	}
	jog := 2 * l.settings.FineStep
	prev := start
	var ratios []float64
	for i := 0; i < samples*2; i++ {
		dir := transport.Forward
		if i%2 == 1 {
			dir = transport.Backward
		}
		if err := l.transport.Step(dir, jog); err != nil {
			return 0, err
		}
		_, res, err := l.Detect(ctx)
		if err != nil {
			return 0, err
		}
		if res.Found && prev.Found {
			moved := abs(res.Center.Y - prev.Center.Y)
			if moved > 0 {
				ratios = append(ratios, float64(moved)/float64(jog))
			}
		}
		prev = res
	}
	if len(ratios) == 0 {
		return 0, fmt.Errorf("%w: perforation lost while jogging", ErrCalibrationFailed)
	}
	pps := ClampPixelsPerStep(median(ratios))
	l.profile.PixelsPerStep = pps
	l.logger.Info("pixels per step measured", logging.Float64("pixels_per_step", pps), logging.Int("samples", len(ratios)))
	return pps, nil
}

// AdvanceFrame moves one calibrated frame in dir, corrected by the error
// of the previous detection. It returns the steps taken.
func (l *Loop) AdvanceFrame(ctx context.Context, dir transport.Direction, last perforation.Result) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	steps := l.profile.StepsForward
	if dir == transport.Backward {
		steps = l.profile.StepsBackward
	}
	if steps <= 0 {
		return 0, ErrNotCalibrated
	}
	if last.Found && l.profile.PixelsPerStep > 0 {
		correction := int(math.Round(float64(last.YDiff) / l.profile.PixelsPerStep))
		if dir == transport.Forward {
			steps += correction
		} else {
			steps -= correction
		}
	}
	steps = max(steps, 1)
	if err := l.transport.Step(dir, steps); err != nil {
		return 0, err
	}
	return steps, nil
}

// FastWind moves frames calibrated frames at once and re-centers.
func (l *Loop) FastWind(ctx context.Context, frames int, dir transport.Direction) (perforation.Result, error) {
	steps := l.profile.StepsForward
	if dir == transport.Backward {
		steps = l.profile.StepsBackward
	}
	if steps <= 0 {
		return perforation.Result{}, ErrNotCalibrated
	}
	if frames > 0 {
		if err := l.transport.Step(dir, steps*frames); err != nil {
			return perforation.Result{}, err
		}
	}
	return l.CenterFrame(ctx, true)
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
