package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJob is the standardized key for the capture job name.
	FieldJob = "job"
	// FieldRunID is the standardized key for the ledger run identifier.
	FieldRunID = "run_id"
	// FieldFrame is the standardized key for frame numbers.
	FieldFrame = "frame"
	// FieldEventType tags lifecycle events so they can be filtered.
	FieldEventType = "event_type"
	// FieldErrorHint carries a next step for the operator.
	FieldErrorHint = "error_hint"
	FieldError     = "error"
)

type contextKey int

const (
	jobKey contextKey = iota
	runIDKey
)

// WithJob stores the job name and run identifier on ctx.
func WithJob(ctx context.Context, job, runID string) context.Context {
	ctx = context.WithValue(ctx, jobKey, job)
	return context.WithValue(ctx, runIDKey, runID)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if job, ok := ctx.Value(jobKey).(string); ok && job != "" {
		fields = append(fields, slog.String(FieldJob, job))
	}
	if id, ok := ctx.Value(runIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
