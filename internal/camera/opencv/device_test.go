package opencv

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"gocv.io/x/gocv"

	"telecine/internal/camera"
	"telecine/internal/logging"
)

// fakeSource records the driver calls in order. Read fills the frame with
// the current exposure value.
type fakeSource struct {
	props  map[gocv.VideoCaptureProperties]float64
	events []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{props: map[gocv.VideoCaptureProperties]float64{gocv.VideoCaptureExposure: 10}}
}

func (f *fakeSource) Read(m *gocv.Mat) bool {
	v := f.props[gocv.VideoCaptureExposure]
	f.events = append(f.events, fmt.Sprintf("read@%g", v))
	tmp := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), 2, 2, gocv.MatTypeCV8UC3)
	defer tmp.Close()
	tmp.CopyTo(m)
	return true
}

func (f *fakeSource) Grab(skip int) error {
	for i := 0; i < skip; i++ {
		f.events = append(f.events, "grab")
	}
	return nil
}

func (f *fakeSource) Set(prop gocv.VideoCaptureProperties, v float64) {
	f.props[prop] = v
	if prop == gocv.VideoCaptureExposure {
		f.events = append(f.events, fmt.Sprintf("exposure=%g", v))
	}
}

func (f *fakeSource) Get(prop gocv.VideoCaptureProperties) float64 { return f.props[prop] }

func (f *fakeSource) Close() error { return nil }

func openFake(t *testing.T, settings camera.Settings) (*Device, *fakeSource) {
	t.Helper()
	src := newFakeSource()
	d := newDevice(src, settings, logging.NewNop())
	t.Cleanup(func() { d.Close() })
	src.events = nil
	return d, src
}

func TestOpenKeepsOneDriverBuffer(t *testing.T) {
	src := newFakeSource()
	d := newDevice(src, camera.Settings{}, logging.NewNop())
	defer d.Close()
	if got := src.props[gocv.VideoCaptureBufferSize]; got != 1 {
		t.Fatalf("buffer size = %g, want 1", got)
	}
}

func TestCaptureFlushesQueuedFrames(t *testing.T) {
	d, src := openFake(t, camera.Settings{SettleFrames: 2})

	for range 2 {
		if _, err := d.Capture(context.Background()); err != nil {
			t.Fatalf("Capture: %v", err)
		}
	}
	want := []string{"grab", "grab", "read@10", "grab", "grab", "read@10"}
	if !reflect.DeepEqual(src.events, want) {
		t.Fatalf("events = %v, want %v", src.events, want)
	}
}

func TestCaptureFlushesWithoutSettleFrames(t *testing.T) {
	d, src := openFake(t, camera.Settings{})

	if _, err := d.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if want := []string{"grab", "read@10"}; !reflect.DeepEqual(src.events, want) {
		t.Fatalf("events = %v, want %v", src.events, want)
	}
}

func TestCaptureBracketSettlesAfterRestoringExposure(t *testing.T) {
	d, src := openFake(t, camera.Settings{SettleFrames: 1, BracketFactor: 4})

	first, second, err := d.CaptureBracket(context.Background())
	if err != nil {
		t.Fatalf("CaptureBracket: %v", err)
	}
	if first.Pix[0] != 10 || second.Pix[0] != 40 {
		t.Fatalf("exposures %d/%d, want 10/40", first.Pix[0], second.Pix[0])
	}
	if _, err := d.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	want := []string{
		"grab", "read@10",
		"exposure=40", "grab", "read@40",
		"exposure=10", "grab",
		"grab", "read@10",
	}
	if !reflect.DeepEqual(src.events, want) {
		t.Fatalf("events = %v, want %v", src.events, want)
	}
}

func TestCaptureAfterClose(t *testing.T) {
	d, _ := openFake(t, camera.Settings{})
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := d.Capture(context.Background()); err != camera.ErrClosed {
		t.Fatalf("Capture after Close = %v, want ErrClosed", err)
	}
}

func TestCaptureHonoursContext(t *testing.T) {
	d, src := openFake(t, camera.Settings{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Capture(ctx); err == nil {
		t.Fatal("expected context error")
	}
	if len(src.events) != 0 {
		t.Fatalf("device touched after cancel: %v", src.events)
	}
}
