package jobstore

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further updates are expected.
func (s Status) Terminal() bool {
	return s != StatusRunning && s != ""
}

// Outcome classifies a recorded frame.
type Outcome string

const (
	// OutcomeCaptured is a crop aligned on a detected perforation.
	OutcomeCaptured Outcome = "captured"
	// OutcomeFallback is a crop taken from the last good position.
	OutcomeFallback Outcome = "fallback"
	// OutcomeFailed is the full frame saved for a failed detection.
	OutcomeFailed Outcome = "failed"
)

// RunSpec describes a run when it starts.
type RunSpec struct {
	Job        string
	StartFrame int
	EndFrame   int
	Reverse    bool
	Bracket    bool
}

// Run is a ledger row.
type Run struct {
	ID           string
	Job          string
	StartFrame   int
	EndFrame     int
	Reverse      bool
	Bracket      bool
	Status       Status
	Frames       int
	Failures     int
	Fallbacks    int
	StopFrame    int
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration is the wall time of a finished run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunResult carries the terminal state passed to FinishRun.
type RunResult struct {
	Status    Status
	Frames    int
	Failures  int
	Fallbacks int
	StopFrame int
	Err       error
}

// Frame is one stored image.
type Frame struct {
	RunID      string
	Frame      int
	Outcome    Outcome
	Path       string
	YDiff      int
	RecordedAt time.Time
}
