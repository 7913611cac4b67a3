package perforation

import (
	"testing"

	"telecine/internal/film"
)

func TestScanHelpers(t *testing.T) {
	mask := []bool{true, true, false, false, false, true}
	if got := scanForward(mask, 2); got != 5 {
		t.Fatalf("scanForward = %d, want 5", got)
	}
	if got := scanBackward(mask, 4); got != 2 {
		t.Fatalf("scanBackward = %d, want 2", got)
	}
	if got := scanForward([]bool{false, false}, 0); got != 2 {
		t.Fatalf("scanForward without dark = %d, want 2", got)
	}
	if got := scanBackward([]bool{false, false}, 2); got != 0 {
		t.Fatalf("scanBackward without dark = %d, want 0", got)
	}
}

func TestMedianEvenAndOdd(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Fatalf("odd median = %v", got)
	}
	if got := median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Fatalf("even median = %v", got)
	}
	if got := median(nil); got != 0 {
		t.Fatalf("empty median = %v", got)
	}
}

func TestLabelBrightRuns(t *testing.T) {
	profile := []float64{10, 200, 210, 10, 250, 10, 240}
	mask := darkMask(profile, 100)
	runs := labelBrightRuns(profile, mask)
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %+v", runs)
	}
	if runs[0].start != 1 || runs[0].stop != 3 || runs[0].mean != 205 {
		t.Fatalf("unexpected first run %+v", runs[0])
	}
	if runs[2].start != 6 || runs[2].stop != 7 {
		t.Fatalf("trailing run not flushed: %+v", runs[2])
	}
}

func TestSelectBrightestRun(t *testing.T) {
	heights := IntRange{Min: 54, Max: 62}
	hole := brightRun{start: 10, stop: 68, mean: 245}
	edge := brightRun{start: 80, stop: 200, mean: 252}
	dim := brightRun{start: 0, stop: 58, mean: 230}

	cases := []struct {
		name string
		runs []brightRun
		want bool
	}{
		{"only candidate", []brightRun{hole}, true},
		{"brighter wrong height after candidate", []brightRun{hole, edge}, false},
		{"brighter wrong height before candidate", []brightRun{edge, hole}, false},
		{"dimmer run ignored", []brightRun{dim, hole}, true},
		{"no acceptable height", []brightRun{edge}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := selectBrightestRun(tc.runs, heights)
			if ok != tc.want {
				t.Fatalf("ok = %v, want %v", ok, tc.want)
			}
			if ok && got != hole {
				t.Fatalf("selected %+v, want %+v", got, hole)
			}
		})
	}
}

func TestTemplateRangesAreSymmetric(t *testing.T) {
	cases := []struct {
		format film.Format
		size   film.Size
	}{
		{film.Super8, film.Size{W: 46, H: 58}},
		{film.Standard8, film.Size{W: 90, H: 62}},
	}
	for _, tc := range cases {
		t.Run(tc.format.String(), func(t *testing.T) {
			tmpl, err := NewTemplate(tc.format, tc.size, 0.08)
			if err != nil {
				t.Fatalf("NewTemplate returned error: %v", err)
			}
			aspect := tc.format.PerforationAspect()
			if d1, d2 := aspect-tmpl.AspectRange.Min, tmpl.AspectRange.Max-aspect; !nearlyEqual(d1, d2) {
				t.Fatalf("aspect range not symmetric: %v vs %v", d1, d2)
			}
			if width := tmpl.AspectRange.Max - tmpl.AspectRange.Min; !nearlyEqual(width, aspect*0.08) {
				t.Fatalf("aspect range width %v, want %v", width, aspect*0.08)
			}
			if tc.size.W-tmpl.WidthRange.Min != tmpl.WidthRange.Max-tc.size.W {
				t.Fatalf("width range not symmetric: %+v", tmpl.WidthRange)
			}
			if tc.size.H-tmpl.HeightRange.Min != tmpl.HeightRange.Max-tc.size.H {
				t.Fatalf("height range not symmetric: %+v", tmpl.HeightRange)
			}
		})
	}
}

func nearlyEqual(a, b float64) bool {
	d := a - b
	return d < 1e-12 && d > -1e-12
}
