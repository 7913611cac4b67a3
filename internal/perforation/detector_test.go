package perforation_test

import (
	"errors"
	"math"
	"testing"

	"telecine/internal/film"
	"telecine/internal/perforation"
)

const (
	baseLevel = 40
	holeLevel = 250
)

var (
	frameSize    = film.Size{W: 400, H: 300}
	expectedPerf = film.Size{W: 46, H: 58}
)

// frameWithHole renders dark film base with one bright perforation whose
// midpoint is center.
func frameWithHole(center film.Point, size film.Size) *film.Image {
	img := film.NewImage(frameSize.W, frameSize.H)
	img.Fill(film.Rect{W: frameSize.W, H: frameSize.H}, baseLevel)
	img.Fill(film.Rect{X: center.X - size.W/2, Y: center.Y - size.H/2, W: size.W, H: size.H}, holeLevel)
	return img
}

func newInitializedDetector(t *testing.T, settings perforation.Settings) *perforation.Detector {
	t.Helper()
	det := perforation.New(settings, nil)
	if err := det.Init(film.Super8, frameSize, expectedPerf, 60); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	return det
}

func TestInitRejectsUnknownFormat(t *testing.T) {
	det := perforation.New(perforation.DefaultSettings(), nil)
	err := det.Init(film.Format(9), frameSize, expectedPerf, 60)
	if !errors.Is(err, perforation.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestFindBeforeInitFails(t *testing.T) {
	det := perforation.New(perforation.DefaultSettings(), nil)
	if _, err := det.Find(frameWithHole(film.Point{X: 60, Y: 150}, expectedPerf)); !errors.Is(err, perforation.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}

	if err := det.Init(film.Super8, frameSize, film.Size{}, 0); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if _, err := det.Find(frameWithHole(film.Point{X: 60, Y: 150}, expectedPerf)); !errors.Is(err, perforation.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized without expected size, got %v", err)
	}
}

func TestInitializedROIPlacement(t *testing.T) {
	det := newInitializedDetector(t, perforation.DefaultSettings())
	roi := det.ROI()
	if roi.Origin != (film.Point{X: 30, Y: 100}) || roi.Size != (film.Size{W: 60, H: 100}) {
		t.Fatalf("unexpected super8 ROI %+v", roi)
	}
	if roi.Center != (film.Point{X: 60, Y: 150}) {
		t.Fatalf("unexpected ROI center %+v", roi.Center)
	}

	std := perforation.New(perforation.DefaultSettings(), nil)
	if err := std.Init(film.Standard8, frameSize, film.Size{W: 70, H: 48}, 60); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if got := std.ROI().Origin.Y; got != frameSize.H/50 {
		t.Fatalf("expected std8 ROI near top of frame, got y=%d", got)
	}

	wide := perforation.New(perforation.DefaultSettings(), nil)
	if err := wide.Init(film.Super8, frameSize, film.Size{}, 60); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if got := wide.ROI(); got.Size != (film.Size{W: 200, H: 300}) || got.Origin != (film.Point{}) {
		t.Fatalf("expected wide ROI before initialization, got %+v", got)
	}
}

func TestFindReportsKnownCenter(t *testing.T) {
	det := newInitializedDetector(t, perforation.DefaultSettings())
	want := film.Point{X: 60, Y: 157}

	res, err := det.Find(frameWithHole(want, expectedPerf))
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if !res.Found {
		t.Fatal("expected perforation to be found")
	}
	if abs(res.Center.X-want.X) > 1 || abs(res.Center.Y-want.Y) > 1 {
		t.Fatalf("center %+v, want %+v", res.Center, want)
	}
	if res.YDiff != 7 {
		t.Fatalf("yDiff = %d, want 7", res.YDiff)
	}
	if res.Position.X != want.X-expectedPerf.W/2 {
		t.Fatalf("left edge x = %d, want %d", res.Position.X, want.X-expectedPerf.W/2)
	}
}

func TestFindFollowsHorizontalDrift(t *testing.T) {
	det := newInitializedDetector(t, perforation.DefaultSettings())
	res, err := det.Find(frameWithHole(film.Point{X: 64, Y: 150}, expectedPerf))
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if !res.Found || res.Center.X != 64 {
		t.Fatalf("expected refined center x 64, got %+v", res)
	}
	if det.ROI().Center.X != 64 {
		t.Fatalf("expected ROI recentered on 64, got %+v", det.ROI())
	}
}

func TestFindMissKeepsStaleValues(t *testing.T) {
	det := newInitializedDetector(t, perforation.DefaultSettings())
	good, err := det.Find(frameWithHole(film.Point{X: 60, Y: 155}, expectedPerf))
	if err != nil || !good.Found {
		t.Fatalf("expected initial find to succeed, got %+v err=%v", good, err)
	}

	// A band too short for the template fails the aspect check and has no
	// run of acceptable height for the fallback.
	miss, err := det.Find(frameWithHole(film.Point{X: 60, Y: 150}, film.Size{W: 46, H: 30}))
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if miss.Found {
		t.Fatal("expected detection miss")
	}
	last := det.Result()
	if last.Position != good.Position || last.Center != good.Center || last.YDiff != good.YDiff {
		t.Fatalf("miss mutated result: before %+v after %+v", good, last)
	}
}

func TestFindLeftEdgeBeforeVerticalFind(t *testing.T) {
	det := newInitializedDetector(t, perforation.DefaultSettings())
	before := det.Result()
	_, err := det.FindLeftEdge(frameWithHole(film.Point{X: 60, Y: 150}, expectedPerf))
	if !errors.Is(err, perforation.ErrSequence) {
		t.Fatalf("expected ErrSequence, got %v", err)
	}
	if det.Result() != before {
		t.Fatalf("FindLeftEdge mutated result: %+v", det.Result())
	}
}

func TestFindFallsBackToLabelledRuns(t *testing.T) {
	det := newInitializedDetector(t, perforation.DefaultSettings())
	// Hole near the top of the ROI so the reference row window is partly dark.
	center := film.Point{X: 60, Y: 100 + 2 + expectedPerf.H/2}

	res, err := det.Find(frameWithHole(center, expectedPerf))
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if !res.Found {
		t.Fatal("expected fallback detection to succeed")
	}
	if res.Center.Y != center.Y {
		t.Fatalf("center y = %d, want %d", res.Center.Y, center.Y)
	}
	if res.YDiff != center.Y-150 {
		t.Fatalf("yDiff = %d, want %d", res.YDiff, center.Y-150)
	}
}

func TestCheckEdgesAnchorsOnOneEdge(t *testing.T) {
	short := film.Size{W: 46, H: 56}
	holeTop := 125
	center := film.Point{X: 60, Y: holeTop + short.H/2}

	cases := []struct {
		name  string
		mode  perforation.CheckEdges
		wantY int
	}{
		{"none", perforation.CheckEdgesNone, holeTop + short.H/2},
		{"top", perforation.CheckEdgesTop, holeTop + expectedPerf.H/2},
		{"bottom", perforation.CheckEdgesBottom, holeTop + short.H - expectedPerf.H/2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := perforation.DefaultSettings()
			settings.CheckEdges = tc.mode
			det := newInitializedDetector(t, settings)
			res, err := det.Find(frameWithHole(center, short))
			if err != nil {
				t.Fatalf("Find returned error: %v", err)
			}
			if !res.Found || res.Center.Y != tc.wantY {
				t.Fatalf("center y = %d found=%v, want %d", res.Center.Y, res.Found, tc.wantY)
			}
		})
	}
}

func TestFindFirstFromCoordsBootstraps(t *testing.T) {
	det := perforation.New(perforation.DefaultSettings(), nil)
	if err := det.Init(film.Super8, frameSize, film.Size{}, 0); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	center := film.Point{X: 60, Y: 157}
	img := frameWithHole(center, expectedPerf)

	res, err := det.FindFirstFromCoords(img, center, 10)
	if err != nil {
		t.Fatalf("FindFirstFromCoords returned error: %v", err)
	}
	if !res.Found {
		t.Fatal("expected bootstrap to succeed")
	}
	if res.Center != center {
		t.Fatalf("center %+v, want %+v", res.Center, center)
	}
	if det.Template().ExpectedSize != expectedPerf {
		t.Fatalf("expected size %+v, want %+v", det.Template().ExpectedSize, expectedPerf)
	}
	if det.CenterX() != center.X || det.ROI().Center.X != center.X {
		t.Fatalf("expected ROI centered on %d, got %+v", center.X, det.ROI())
	}

	follow, err := det.Find(img)
	if err != nil || !follow.Found || follow.Center != center {
		t.Fatalf("expected steady-state find to agree, got %+v err=%v", follow, err)
	}
}

func TestFindFirstFromCoordsRejectsDarkAnchor(t *testing.T) {
	det := perforation.New(perforation.DefaultSettings(), nil)
	if err := det.Init(film.Super8, frameSize, film.Size{}, 0); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	img := frameWithHole(film.Point{X: 60, Y: 157}, expectedPerf)

	// The anchor window straddles the top edge of the hole.
	res, err := det.FindFirstFromCoords(img, film.Point{X: 60, Y: 126}, 10)
	if err != nil {
		t.Fatalf("FindFirstFromCoords returned error: %v", err)
	}
	if res.Found {
		t.Fatal("expected dark anchor to be rejected")
	}
	if det.Template().Initialized() {
		t.Fatal("template must stay uninitialized after failed bootstrap")
	}
}

func TestAspectBoundary(t *testing.T) {
	template, err := perforation.NewTemplate(film.Super8, film.Size{}, perforation.DefaultSettings().SizeMargin)
	if err != nil {
		t.Fatalf("NewTemplate returned error: %v", err)
	}
	const height = 58
	widest := int(math.Floor(template.AspectRange.Max * height))
	for float64(widest)/height > template.AspectRange.Max {
		widest--
	}
	narrowest := int(math.Ceil(template.AspectRange.Min * height))
	for float64(narrowest)/height < template.AspectRange.Min {
		narrowest++
	}

	cases := []struct {
		name   string
		width  int
		accept bool
	}{
		{"widest accepted", widest, true},
		{"one pixel too wide", widest + 1, false},
		{"narrowest accepted", narrowest, true},
		{"one pixel too narrow", narrowest - 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			det := perforation.New(perforation.DefaultSettings(), nil)
			if err := det.Init(film.Super8, frameSize, film.Size{}, 0); err != nil {
				t.Fatalf("Init returned error: %v", err)
			}
			center := film.Point{X: 80, Y: 150}
			img := film.NewImage(frameSize.W, frameSize.H)
			img.Fill(film.Rect{W: frameSize.W, H: frameSize.H}, baseLevel)
			img.Fill(film.Rect{X: center.X - 20, Y: center.Y - height/2, W: tc.width, H: height}, holeLevel)

			res, err := det.FindFirstFromCoords(img, center, 10)
			if err != nil {
				t.Fatalf("FindFirstFromCoords returned error: %v", err)
			}
			if res.Found != tc.accept {
				t.Fatalf("width %d (aspect %.4f, range %.4f-%.4f): found=%v, want %v",
					tc.width, float64(tc.width)/height, template.AspectRange.Min, template.AspectRange.Max, res.Found, tc.accept)
			}
		})
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
