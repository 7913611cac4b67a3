package capture

import "time"

// Timing accumulates durations.
type Timing struct {
	Count   int
	Total   time.Duration
	Fastest time.Duration
	Slowest time.Duration
}

// Add records one sample.
func (t *Timing) Add(d time.Duration) {
	if t.Count == 0 || d < t.Fastest {
		t.Fastest = d
	}
	if d > t.Slowest {
		t.Slowest = d
	}
	t.Count++
	t.Total += d
}

// Average is zero when nothing was recorded.
func (t Timing) Average() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Count)
}

// Summary reports how a job went. StopFrame is the last frame processed.
type Summary struct {
	RunID       string
	Job         string
	Dir         string
	Frames      int
	Detected    int
	Fallbacks   int
	Failures    int
	StopFrame   int
	Written     int
	WriteErrors int
	Duration    time.Duration
	FrameTime   Timing
	CameraTime  Timing
}
