package perforation

import (
	"slices"

	"telecine/internal/film"
)

// verticalProfile returns, for every row of roi, the median luminance of the
// columns [x0, x1) measured relative to the ROI origin.
func verticalProfile(img *film.Image, roi film.Rect, x0, x1 int) []float64 {
	x0 = clampInt(x0, 0, roi.W-1)
	x1 = clampInt(x1, x0+1, roi.W)
	profile := make([]float64, roi.H)
	scratch := make([]float64, x1-x0)
	for row := 0; row < roi.H; row++ {
		y := roi.Y + row
		for i := range scratch {
			scratch[i] = img.Luma(roi.X+x0+i, y)
		}
		profile[row] = median(scratch)
	}
	return profile
}

// horizontalProfile returns, for every column of roi, the median luminance of
// the rows [y0, y1) measured relative to the ROI origin.
func horizontalProfile(img *film.Image, roi film.Rect, y0, y1 int) []float64 {
	y0 = clampInt(y0, 0, roi.H-1)
	y1 = clampInt(y1, y0+1, roi.H)
	profile := make([]float64, roi.W)
	scratch := make([]float64, y1-y0)
	for col := 0; col < roi.W; col++ {
		x := roi.X + col
		for i := range scratch {
			scratch[i] = img.Luma(x, roi.Y+y0+i)
		}
		profile[col] = median(scratch)
	}
	return profile
}

// median sorts values in place.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	slices.Sort(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

func thresholdValue(profile []float64, fraction float64) float64 {
	if len(profile) == 0 {
		return 0
	}
	return slices.Max(profile) * fraction
}

// darkMask marks every profile entry below the threshold. Bright entries are
// candidate perforation (the lamp shining through the hole).
func darkMask(profile []float64, threshold float64) []bool {
	mask := make([]bool, len(profile))
	for i, v := range profile {
		mask[i] = v < threshold
	}
	return mask
}

func anyDark(mask []bool, lo, hi int) bool {
	lo = clampInt(lo, 0, len(mask))
	hi = clampInt(hi, lo, len(mask))
	return slices.Contains(mask[lo:hi], true)
}

// scanForward returns the first dark index at or after start, or len(mask).
func scanForward(mask []bool, start int) int {
	for i := max(start, 0); i < len(mask); i++ {
		if mask[i] {
			return i
		}
	}
	return len(mask)
}

// scanBackward returns the index just past the last dark entry before start,
// i.e. the first bright index of the run containing start-1, or 0.
func scanBackward(mask []bool, start int) int {
	for i := min(start, len(mask)) - 1; i >= 0; i-- {
		if mask[i] {
			return i + 1
		}
	}
	return 0
}

// brightRun is a half-open interval of consecutive bright profile entries.
type brightRun struct {
	start, stop int
	mean        float64
}

func (r brightRun) height() int { return r.stop - r.start }

// labelBrightRuns labels the connected bright runs of a 1-D mask.
func labelBrightRuns(profile []float64, mask []bool) []brightRun {
	var runs []brightRun
	start := -1
	flush := func(stop int) {
		var sum float64
		for _, v := range profile[start:stop] {
			sum += v
		}
		runs = append(runs, brightRun{start: start, stop: stop, mean: sum / float64(stop-start)})
		start = -1
	}
	for i, dark := range mask {
		switch {
		case !dark && start < 0:
			start = i
		case dark && start >= 0:
			flush(i)
		}
	}
	if start >= 0 {
		flush(len(mask))
	}
	return runs
}

// selectBrightestRun picks the run of acceptable height with the highest mean
// brightness. A candidate is discarded whenever a brighter run appears, so a
// lit frame edge brighter than the hole can never leave a dimmer run selected.
func selectBrightestRun(runs []brightRun, heights IntRange) (brightRun, bool) {
	var (
		brightest float64
		candidate brightRun
		ok        bool
	)
	for _, run := range runs {
		if run.mean > brightest {
			brightest = run.mean
			ok = false
		}
		if heights.Contains(run.height()) && run.mean == brightest {
			candidate = run
			ok = true
		}
	}
	return candidate, ok
}

func uniform(mask []bool) bool {
	if len(mask) == 0 {
		return true
	}
	first := mask[0]
	for _, v := range mask[1:] {
		if v != first {
			return false
		}
	}
	return true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
