package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"telecine/internal/film"
	"telecine/internal/jobstore"
	"telecine/internal/logging"
	"telecine/internal/notifications"
	"telecine/internal/perforation"
	"telecine/internal/transport"
)

// Camera supplies frames.
type Camera interface {
	Capture(ctx context.Context) (*film.Image, error)
	CaptureBracket(ctx context.Context) (*film.Image, *film.Image, error)
}

// Detector locates the perforation in a frame.
type Detector interface {
	Find(img *film.Image) (perforation.Result, error)
}

// Registration positions the film.
type Registration interface {
	CenterFrame(ctx context.Context, useCalibrated bool) (perforation.Result, error)
	AdvanceFrame(ctx context.Context, dir transport.Direction, last perforation.Result) (int, error)
}

// Transport is the part of the transport the runner switches on and off.
type Transport interface {
	LampOn() error
	LampOff() error
	Close() error
}

// Writer persists a frame image.
type Writer interface {
	Write(path string, img *film.Image) error
}

// Recorder is the job ledger.
type Recorder interface {
	StartRun(ctx context.Context, spec jobstore.RunSpec) (string, error)
	RecordFrame(ctx context.Context, frame jobstore.Frame) error
	FinishRun(ctx context.Context, id string, result jobstore.RunResult) error
}

// Options wires the runner's collaborators. Recorder and Notifier are
// optional.
type Options struct {
	Camera       Camera
	Detector     Detector
	Registration Registration
	Transport    Transport
	Writer       Writer
	Recorder     Recorder
	Notifier     notifications.Service
	Logger       *slog.Logger
	// JobLogLevel filters the JSON log written to JobLogName in the job
	// directory. Empty means info.
	JobLogLevel string
}

// JobLogName is the per-job log kept next to the frames.
const JobLogName = "capture.log"

// Runner executes capture jobs. It is not safe for concurrent use; the
// transport allows one job at a time.
type Runner struct {
	opts   Options
	logger *slog.Logger
}

// NewRunner validates the collaborators.
func NewRunner(opts Options) (*Runner, error) {
	switch {
	case opts.Camera == nil:
		return nil, errors.New("capture: camera required")
	case opts.Detector == nil:
		return nil, errors.New("capture: detector required")
	case opts.Registration == nil:
		return nil, errors.New("capture: registration loop required")
	case opts.Transport == nil:
		return nil, errors.New("capture: transport required")
	case opts.Writer == nil:
		return nil, errors.New("capture: writer required")
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(nil)
	}
	return &Runner{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "capture")}, nil
}

// Run scans job. The returned Summary is filled in on every exit path.
// An abort returns an *AbortError; cancellation returns the context error.
func (r *Runner) Run(ctx context.Context, job Job) (Summary, error) {
	job, err := job.normalized()
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Job: job.Name, Dir: job.Dir(), StopFrame: job.StartFrame}
	if err := os.MkdirAll(summary.Dir, 0o755); err != nil {
		return summary, fmt.Errorf("create output directory: %w", err)
	}

	summary.RunID = r.startRun(ctx, job)
	ctx = logging.WithJob(ctx, job.Folder(), summary.RunID)
	base, closeLog := r.jobLogger(summary.Dir)
	defer closeLog()
	logger := logging.WithContext(ctx, base)

	started := time.Now()
	logger.Info("capture started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.Int("start_frame", job.StartFrame),
		logging.Int("end_frame", job.EndFrame),
		logging.String("direction", job.Direction().String()),
		logging.Bool("bracket", job.Bracket),
		logging.String("output_dir", summary.Dir))
	r.publish(ctx, notifications.EventJobStarted, notifications.Payload{
		"job":   job.Name,
		"start": job.StartFrame,
		"end":   job.EndFrame,
	})

	runErr := r.opts.Transport.LampOn()
	if runErr != nil {
		runErr = fmt.Errorf("lamp on: %w", runErr)
	} else {
		queue := startWriter(ctx, r.opts.Writer, r.opts.Recorder, summary.RunID, job.QueueCapacity, logger)
		runErr = r.scan(ctx, job, queue, &summary, logger)
		summary.Written, summary.WriteErrors = queue.close()
	}
	if err := r.opts.Transport.LampOff(); err != nil {
		logger.Warn("lamp off failed", logging.Error(err))
	}
	if err := r.opts.Transport.Close(); err != nil {
		logger.Warn("transport release failed", logging.Error(err))
	}
	summary.Duration = time.Since(started)

	r.finish(ctx, logger, job, summary, runErr)
	return summary, runErr
}

// jobLogger mirrors the runner log into the job directory. Without a job log
// the runner log is used alone.
func (r *Runner) jobLogger(dir string) (*slog.Logger, func()) {
	handler, closer, err := logging.NewFileHandler(filepath.Join(dir, JobLogName), r.opts.JobLogLevel)
	if err != nil {
		r.logger.Warn("job log unavailable", logging.Error(err))
		return r.logger, func() {}
	}
	handler = handler.WithAttrs([]slog.Attr{slog.String(logging.FieldComponent, "capture")})
	return logging.TeeLogger(r.logger, handler), func() {
		if err := closer.Close(); err != nil {
			r.logger.Warn("job log close failed", logging.Error(err))
		}
	}
}

func (r *Runner) scan(ctx context.Context, job Job, queue *writeQueue, summary *Summary, logger *slog.Logger) error {
	if _, err := r.opts.Registration.CenterFrame(ctx, true); err != nil {
		return fmt.Errorf("center first frame: %w", err)
	}

	var lastGood *perforation.Result
	consecutive := 0
	total := job.FrameCount()
	sampler := logging.NewProgressSampler(5)
	frame := job.StartFrame
	for i := 0; i < total; i, frame = i+1, frame+job.Step() {
		if err := ctx.Err(); err != nil {
			return err
		}
		frameStarted := time.Now()

		images, err := r.captureFrame(ctx, job.Bracket, summary)
		if err != nil {
			return fmt.Errorf("capture frame %d: %w", frame, err)
		}
		res, err := r.opts.Detector.Find(images[0])
		if err != nil {
			return fmt.Errorf("detect frame %d: %w", frame, err)
		}
		summary.Frames++
		summary.StopFrame = frame

		if res.Found {
			consecutive = 0
			summary.Detected++
			good := res
			lastGood = &good
			if err := r.enqueueCrops(queue, job, frame, images, res, jobstore.OutcomeCaptured); err != nil {
				return err
			}
			logger.Debug("frame captured", logging.Int(logging.FieldFrame, frame), logging.Int("y_diff", res.YDiff))
		} else {
			consecutive++
			summary.Failures++
			logging.WarnWithContext(logger, "perforation not found", "detection_miss",
				logging.Int(logging.FieldFrame, frame),
				logging.Int("consecutive", consecutive),
				logging.Bool("fallback", lastGood != nil),
				logging.String(logging.FieldErrorHint, "check the lamp, focus and film path"))
			for n, img := range images {
				queue.put(writeRequest{
					frame:   frame,
					outcome: jobstore.OutcomeFailed,
					path:    filepath.Join(job.Dir(), job.FileName(frame, exposureIndex(job.Bracket, n), true)),
					img:     img,
				})
			}
			if lastGood != nil {
				if r.enqueueFallback(queue, job, frame, images, *lastGood, logger) {
					summary.Fallbacks++
				}
			}
			if consecutive >= job.MaxConsecutiveFailures {
				return &AbortError{Frame: frame, Failures: consecutive}
			}
		}

		if i < total-1 {
			if _, err := r.opts.Registration.AdvanceFrame(ctx, job.Direction(), res); err != nil {
				return fmt.Errorf("advance from frame %d: %w", frame, err)
			}
		}
		summary.FrameTime.Add(time.Since(frameStarted))

		if done := i + 1; sampler.ShouldLog(done, total) {
			logger.Info("capture progress",
				logging.Int(logging.FieldFrame, frame),
				logging.Int("done", done),
				logging.Int("total", total),
				logging.Float64("percent", logging.Percent(done, total)))
		}
	}
	return nil
}

func (r *Runner) captureFrame(ctx context.Context, bracket bool, summary *Summary) ([]*film.Image, error) {
	started := time.Now()
	defer func() { summary.CameraTime.Add(time.Since(started)) }()
	if !bracket {
		img, err := r.opts.Camera.Capture(ctx)
		if err != nil {
			return nil, err
		}
		return []*film.Image{img}, nil
	}
	normal, bright, err := r.opts.Camera.CaptureBracket(ctx)
	if err != nil {
		return nil, err
	}
	return []*film.Image{normal, bright}, nil
}

// enqueueCrops crops every exposure at the perforation of res. Detection
// runs on the first exposure only; the pair is taken without moving film.
func (r *Runner) enqueueCrops(queue *writeQueue, job Job, frame int, images []*film.Image, res perforation.Result, outcome jobstore.Outcome) error {
	for n, img := range images {
		out := img
		if !job.Crop.Whole() {
			cropped, err := img.Crop(job.Crop.Rect(res.Center))
			if err != nil {
				return fmt.Errorf("crop frame %d: %w", frame, err)
			}
			out = cropped
		}
		queue.put(writeRequest{
			frame:   frame,
			outcome: outcome,
			path:    filepath.Join(job.Dir(), job.FileName(frame, exposureIndex(job.Bracket, n), false)),
			img:     out,
			yDiff:   res.YDiff,
		})
	}
	return nil
}

// enqueueFallback crops from the last good position. A crop that no longer
// fits leaves only the failed full frame and reports false.
func (r *Runner) enqueueFallback(queue *writeQueue, job Job, frame int, images []*film.Image, last perforation.Result, logger *slog.Logger) bool {
	if err := r.enqueueCrops(queue, job, frame, images, last, jobstore.OutcomeFallback); err != nil {
		logging.WarnWithContext(logger, "fallback crop outside image", "fallback_skipped",
			logging.Int(logging.FieldFrame, frame), logging.Error(err))
		return false
	}
	return true
}

func exposureIndex(bracket bool, n int) int {
	if !bracket {
		return 0
	}
	return n + 1
}

func (r *Runner) startRun(ctx context.Context, job Job) string {
	if r.opts.Recorder == nil {
		return ""
	}
	id, err := r.opts.Recorder.StartRun(ctx, jobstore.RunSpec{
		Job:        job.Folder(),
		StartFrame: job.StartFrame,
		EndFrame:   job.EndFrame,
		Reverse:    job.Reverse,
		Bracket:    job.Bracket,
	})
	if err != nil {
		r.logger.Warn("ledger run start failed", logging.Error(err))
		return ""
	}
	return id
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, job Job, summary Summary, runErr error) {
	status := jobstore.StatusCompleted
	var abort *AbortError
	switch {
	case runErr == nil:
	case errors.As(runErr, &abort):
		status = jobstore.StatusAborted
	case errors.Is(runErr, context.Canceled):
		status = jobstore.StatusCancelled
	default:
		status = jobstore.StatusFailed
	}

	attrs := []logging.Attr{
		logging.String("status", string(status)),
		logging.Int("frames", summary.Frames),
		logging.Int("detected", summary.Detected),
		logging.Int("fallbacks", summary.Fallbacks),
		logging.Int("failures", summary.Failures),
		logging.Int("stop_frame", summary.StopFrame),
		logging.Int("written", summary.Written),
		logging.Int("write_errors", summary.WriteErrors),
		logging.Duration("duration", summary.Duration),
		logging.Duration("frame_avg", summary.FrameTime.Average()),
		logging.Duration("frame_fastest", summary.FrameTime.Fastest),
		logging.Duration("frame_slowest", summary.FrameTime.Slowest),
		logging.Duration("camera_avg", summary.CameraTime.Average()),
		logging.Duration("camera_fastest", summary.CameraTime.Fastest),
		logging.Duration("camera_slowest", summary.CameraTime.Slowest),
	}

	ledgerCtx := context.WithoutCancel(ctx)
	if r.opts.Recorder != nil && summary.RunID != "" {
		err := r.opts.Recorder.FinishRun(ledgerCtx, summary.RunID, jobstore.RunResult{
			Status:    status,
			Frames:    summary.Frames,
			Failures:  summary.Failures,
			Fallbacks: summary.Fallbacks,
			StopFrame: summary.StopFrame,
			Err:       runErr,
		})
		if err != nil {
			logger.Warn("ledger run finish failed", logging.Error(err))
		}
	}

	switch status {
	case jobstore.StatusCompleted:
		logger.Info("capture completed", logging.Args(append(attrs, logging.String(logging.FieldEventType, "job_complete"))...)...)
		r.publish(ledgerCtx, notifications.EventJobCompleted, notifications.Payload{
			"job":       job.Name,
			"frames":    summary.Frames,
			"fallbacks": summary.Fallbacks,
			"duration":  summary.Duration,
		})
	case jobstore.StatusAborted:
		logging.ErrorWithContext(logger, "capture aborted", "job_abort", append(attrs,
			logging.String(logging.FieldErrorHint, "inspect the failed- frames, check transport tension and lamp"))...)
		r.publish(ledgerCtx, notifications.EventJobAborted, notifications.Payload{
			"job":      job.Name,
			"frame":    abort.Frame,
			"failures": abort.Failures,
		})
	case jobstore.StatusCancelled:
		logger.Info("capture cancelled", logging.Args(append(attrs, logging.String(logging.FieldEventType, "job_cancel"))...)...)
	default:
		logging.ErrorWithContext(logger, "capture failed", "job_error", append(attrs, logging.Error(runErr))...)
		r.publish(ledgerCtx, notifications.EventError, notifications.Payload{
			"context": job.Name,
			"error":   runErr,
		})
	}
}

func (r *Runner) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := r.opts.Notifier.Publish(ctx, event, payload); err != nil {
		r.logger.Warn("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}
