package capture

import (
	"context"
	"log/slog"

	"telecine/internal/film"
	"telecine/internal/jobstore"
	"telecine/internal/logging"
)

type writeRequest struct {
	frame   int
	outcome jobstore.Outcome
	path    string
	img     *film.Image
	yDiff   int
}

// writeQueue is a single consumer draining a bounded FIFO. put blocks while
// the queue is full.
type writeQueue struct {
	requests chan writeRequest
	done     chan struct{}
	writer   Writer
	recorder Recorder
	runID    string
	logger   *slog.Logger

	written int
	failed  int
}

func startWriter(ctx context.Context, w Writer, rec Recorder, runID string, capacity int, logger *slog.Logger) *writeQueue {
	q := &writeQueue{
		requests: make(chan writeRequest, capacity),
		done:     make(chan struct{}),
		writer:   w,
		recorder: rec,
		runID:    runID,
		logger:   logger,
	}
	// Ledger writes outlive job cancellation so drained frames are recorded.
	go q.run(context.WithoutCancel(ctx))
	return q
}

func (q *writeQueue) run(ctx context.Context) {
	defer close(q.done)
	for req := range q.requests {
		if err := q.writer.Write(req.path, req.img); err != nil {
			q.failed++
			logging.WarnWithContext(q.logger, "frame write failed", "frame_write",
				logging.Int(logging.FieldFrame, req.frame),
				logging.String("path", req.path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check free space and permissions on the output directory"))
			continue
		}
		q.written++
		if q.recorder == nil || q.runID == "" {
			continue
		}
		err := q.recorder.RecordFrame(ctx, jobstore.Frame{
			RunID:   q.runID,
			Frame:   req.frame,
			Outcome: req.outcome,
			Path:    req.path,
			YDiff:   req.yDiff,
		})
		if err != nil {
			q.logger.Warn("ledger frame record failed", logging.Int(logging.FieldFrame, req.frame), logging.Error(err))
		}
	}
}

func (q *writeQueue) put(req writeRequest) {
	q.requests <- req
}

// close stops intake and waits for every queued frame to be written.
func (q *writeQueue) close() (written, failed int) {
	close(q.requests)
	<-q.done
	return q.written, q.failed
}
