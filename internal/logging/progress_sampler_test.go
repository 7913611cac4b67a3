package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	if s := NewProgressSampler(0); s.bucketSize != 5 || s.lastBucket != -1 {
		t.Fatalf("unexpected sampler %+v", s)
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	var logged []int
	for done := 0; done <= 200; done++ {
		if s.ShouldLog(done, 200) {
			logged = append(logged, done)
		}
	}
	want := []int{0, 20, 40, 60, 80, 100, 120, 140, 160, 180, 200}
	if len(logged) != len(want) {
		t.Fatalf("logged at %v, want %v", logged, want)
	}
	for i := range want {
		if logged[i] != want[i] {
			t.Fatalf("logged at %v, want %v", logged, want)
		}
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(50)
	s.ShouldLog(10, 10)
	if s.ShouldLog(10, 10) {
		t.Fatal("expected repeat to be suppressed")
	}
	s.Reset()
	if !s.ShouldLog(0, 10) {
		t.Fatal("expected log after reset")
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(1, 2) {
		t.Fatal("nil sampler should always log")
	}
	s.Reset()
}
