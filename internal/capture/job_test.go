package capture

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"telecine/internal/film"
	"telecine/internal/testsupport"
	"telecine/internal/transport"
)

func TestJobFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithJob("Noël 1974", 10, 1))
	cfg.Job.Reverse = true
	cfg.Crop.Width = 640
	cfg.Crop.Height = 480

	job := JobFromConfig(cfg)
	if job.Folder() != "Noel1974" {
		t.Fatalf("folder = %q", job.Folder())
	}
	if job.Step() != -1 || job.FrameCount() != 10 {
		t.Fatalf("step %d, count %d", job.Step(), job.FrameCount())
	}
	if job.Direction() != transport.Backward {
		t.Fatalf("direction = %v", job.Direction())
	}
	if job.MaxConsecutiveFailures != 5 || job.QueueCapacity != 5 || job.Extension != "png" {
		t.Fatalf("defaults not carried: %+v", job)
	}
	if job.Crop.Whole() {
		t.Fatal("crop should not be whole frame")
	}
}

func TestJobFileName(t *testing.T) {
	job := Job{Extension: "jpg"}
	tests := []struct {
		frame, exposure int
		failed          bool
		want            string
	}{
		{7, 0, false, "img-00007.jpg"},
		{7, 2, false, "img-00007-2.jpg"},
		{123456, 0, true, "failed-img-123456.jpg"},
		{3, 1, true, "failed-img-00003-1.jpg"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.want), func(t *testing.T) {
			if got := job.FileName(tt.frame, tt.exposure, tt.failed); got != tt.want {
				t.Fatalf("FileName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJobNormalizedDefaults(t *testing.T) {
	job, err := Job{Name: "reel", OutputDir: t.TempDir(), Extension: ".JPEG"}.normalized()
	if err != nil {
		t.Fatalf("normalized: %v", err)
	}
	if job.Extension != "jpg" || job.MaxConsecutiveFailures != defaultMaxConsecutiveFailures || job.QueueCapacity != defaultQueueCapacity {
		t.Fatalf("unexpected defaults: %+v", job)
	}
	if _, err := (Job{Name: "reel"}).normalized(); err == nil {
		t.Fatal("expected error without output directory")
	}
	if _, err := (Job{Name: "reel", OutputDir: "/tmp", StartFrame: -1}).normalized(); err == nil {
		t.Fatal("expected error for negative frame")
	}
}

func TestCropRect(t *testing.T) {
	c := Crop{OffsetX: 30, OffsetY: -120, Width: 400, Height: 300}
	got := c.Rect(film.Point{X: 50, Y: 200})
	if got != (film.Rect{X: 80, Y: 80, W: 400, H: 300}) {
		t.Fatalf("Rect = %+v", got)
	}
}

func TestTiming(t *testing.T) {
	var tm Timing
	if tm.Average() != 0 {
		t.Fatal("empty average should be zero")
	}
	for _, d := range []time.Duration{30 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond} {
		tm.Add(d)
	}
	if tm.Fastest != 10*time.Millisecond || tm.Slowest != 30*time.Millisecond || tm.Average() != 20*time.Millisecond {
		t.Fatalf("timing = %+v avg %v", tm, tm.Average())
	}
}

func TestAbortErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("run: %w", &AbortError{Frame: 12, Failures: 5})
	if !errors.Is(err, ErrJobAborted) {
		t.Fatal("AbortError should match ErrJobAborted")
	}
	want := "capture job aborted at frame 12 after 5 consecutive failed detections"
	var abort *AbortError
	if !errors.As(err, &abort) || abort.Error() != want {
		t.Fatalf("Error() = %q", abort.Error())
	}
}

func TestAutoCrop(t *testing.T) {
	// 58 px perforation: 58 * 4.234/1.143 * 1.2 = 257.8.
	got := AutoCrop(film.Super8, film.Size{W: 46, H: 58})
	if got != (Crop{OffsetY: -129, Width: 344, Height: 258}) {
		t.Fatalf("super8 crop = %+v", got)
	}
	std := AutoCrop(film.Standard8, film.Size{W: 80, H: 55})
	if std.OffsetY != -27 || std.OffsetX != 0 || std.Height == 0 {
		t.Fatalf("std8 crop = %+v", std)
	}
}
