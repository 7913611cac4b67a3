package perforation

import (
	"fmt"
	"log/slog"

	"telecine/internal/film"
	"telecine/internal/logging"
)

// Result is the outcome of a detection. Position is the top-left corner of the
// perforation and Center its midpoint, both in image coordinates. YDiff is the
// signed distance of Center.Y below the ROI reference row. When Found is false
// the other fields hold the values of the last successful detection.
type Result struct {
	Found    bool
	Position film.Point
	Center   film.Point
	YDiff    int
}

// Detector locates sprocket holes in captured frames. A Detector owns its ROI
// and is not safe for concurrent use.
type Detector struct {
	settings  Settings
	logger    *slog.Logger
	template  Template
	imageSize film.Size
	centerX   int
	roi       ROI
	result    Result
}

// New constructs a detector. Init must be called before detection.
func New(settings Settings, logger *slog.Logger) *Detector {
	return &Detector{
		settings: settings.withDefaults(),
		logger:   logging.NewComponentLogger(logger, "perforation"),
	}
}

// Init sets the film format, image size, expected perforation size, and the
// perforation center line. A zero expected size leaves the detector waiting
// for FindFirstFromCoords.
func (d *Detector) Init(format film.Format, imageSize, expected film.Size, centerX int) error {
	template, err := NewTemplate(format, expected, d.settings.SizeMargin)
	if err != nil {
		return err
	}
	d.template = template
	d.imageSize = imageSize
	d.centerX = centerX
	d.updateROI()
	return nil
}

// SetExpectedSize replaces the expected perforation size and recomputes the ROI.
func (d *Detector) SetExpectedSize(expected film.Size) error {
	if !d.template.Format.Valid() {
		return ErrNotInitialized
	}
	template, err := NewTemplate(d.template.Format, expected, d.settings.SizeMargin)
	if err != nil {
		return err
	}
	d.template = template
	d.updateROI()
	return nil
}

// Template returns the current perforation template.
func (d *Detector) Template() Template { return d.template }

// ROI returns the current search window.
func (d *Detector) ROI() ROI { return d.roi }

// Result returns the last detection result.
func (d *Detector) Result() Result { return d.result }

// CenterX returns the perforation center line used to place the ROI.
func (d *Detector) CenterX() int { return d.centerX }

// Format returns the film format the detector was initialized for.
func (d *Detector) Format() film.Format { return d.template.Format }

// SetCenterX moves the perforation center line, e.g. when reloading a saved
// setup, and recomputes the ROI.
func (d *Detector) SetCenterX(x int) {
	d.centerX = x
	d.updateROI()
}

// Settings returns the detection constants in use.
func (d *Detector) Settings() Settings { return d.settings }

func (d *Detector) updateROI() {
	d.roi = computeROI(d.imageSize, d.template, d.centerX, d.settings.ROIHeightFraction)
}

func (d *Detector) syncImageSize(img *film.Image) {
	if img.Size() != d.imageSize {
		d.imageSize = img.Size()
		d.updateROI()
	}
}

// FindFirstFromCoords bootstraps detection from a point known to lie inside a
// perforation, such as a click on a preview. The expected size is measured
// from the image and replaces any previous template size.
func (d *Detector) FindFirstFromCoords(img *film.Image, start film.Point, windowWidth int) (Result, error) {
	if !d.template.Format.Valid() {
		return d.result, ErrNotInitialized
	}
	if img == nil || start.X < 0 || start.Y < 0 || start.X >= img.Width || start.Y >= img.Height {
		return d.result, fmt.Errorf("start position %+v outside image", start)
	}
	if windowWidth < 2 {
		windowWidth = 2
	}

	d.result.Found = false
	d.imageSize = img.Size()
	d.template, _ = NewTemplate(d.template.Format, film.Size{}, d.settings.SizeMargin)
	d.updateROI()

	roi := d.roi.Rect()
	if start.X >= roi.X+roi.W {
		d.logger.Debug("start position outside search window", logging.Int("x", start.X), logging.Int("y", start.Y))
		return d.result, nil
	}
	xStart := start.X - roi.X
	yStart := start.Y - roi.Y
	win := windowWidth / 2

	v := verticalProfile(img, roi, xStart-win, xStart+win)
	h := horizontalProfile(img, roi, yStart-win, yStart+win)
	threshold := thresholdValue(v, d.settings.ThresholdFraction)
	vDark := darkMask(v, threshold)
	hDark := darkMask(h, threshold)

	if anyDark(hDark, xStart-win, xStart+win) || anyDark(vDark, yStart-win, yStart+win) {
		d.logger.Debug("image data at start position, cannot locate perforation",
			logging.Int("x", start.X), logging.Int("y", start.Y))
		return d.result, nil
	}

	top := scanBackward(vDark, yStart)
	bottom := scanForward(vDark, yStart)
	left := scanBackward(hDark, xStart)
	right := scanForward(hDark, xStart)

	w := right - left
	hgt := bottom - top
	aspect := float64(w) / float64(hgt)
	if !d.template.AspectRange.Contains(aspect) {
		d.logger.Debug("perforation aspect ratio out of range",
			logging.Float64("aspect", aspect),
			logging.Float64("aspect_min", d.template.AspectRange.Min),
			logging.Float64("aspect_max", d.template.AspectRange.Max))
		return d.result, nil
	}

	cx := roi.X + left + w/2
	cy := roi.Y + top + hgt/2
	d.centerX = cx
	if err := d.SetExpectedSize(film.Size{W: w, H: hgt}); err != nil {
		return d.result, err
	}
	d.result = Result{
		Found:    true,
		Position: film.Point{X: roi.X + left, Y: roi.Y + top},
		Center:   film.Point{X: cx, Y: cy},
		YDiff:    cy - d.roi.Center.Y,
	}
	d.logger.Info("perforation located",
		logging.Int("center_x", cx),
		logging.Int("center_y", cy),
		logging.Int("width", w),
		logging.Int("height", hgt))
	return d.result, nil
}

// Find locates the perforation in a frame using the known template. A miss is
// reported through Result.Found, never as an error.
func (d *Detector) Find(img *film.Image) (Result, error) {
	if !d.template.Initialized() {
		return d.result, ErrNotInitialized
	}
	if img == nil {
		return d.result, fmt.Errorf("find perforation: nil image")
	}
	d.syncImageSize(img)
	roi := d.roi.Rect()
	if roi.Empty() {
		d.result.Found = false
		return d.result, nil
	}

	expected := d.template.ExpectedSize
	win := expected.W / 3
	xStart := roi.W / 2
	v := verticalProfile(img, roi, xStart-win, xStart+win)
	mask := darkMask(v, thresholdValue(v, d.settings.ThresholdFraction))

	topRow, bottomRow, ok := d.findVertical(mask)
	if !ok {
		topRow, bottomRow, ok = d.findVerticalByLabel(v, mask)
	}
	if !ok {
		d.result.Found = false
		d.logger.Debug("perforation not found")
		return d.result, nil
	}

	cy := roi.Y + topRow + (bottomRow-topRow)/2
	cx := roi.X + xStart
	d.result = Result{
		Found:    true,
		Center:   film.Point{X: cx, Y: cy},
		Position: film.Point{X: cx - expected.W/2, Y: cy - expected.H/2},
		YDiff:    cy - d.roi.Center.Y,
	}

	if d.settings.CheckLeftEdge {
		if _, err := d.FindLeftEdge(img); err != nil {
			return d.result, err
		}
	}

	d.centerX = d.result.Center.X
	d.updateROI()
	return d.result, nil
}

// findVertical scans outward from the ROI reference row for the bright band.
// Returned rows are relative to the ROI.
func (d *Detector) findVertical(mask []bool) (int, int, bool) {
	expected := d.template.ExpectedSize
	yStart := d.roi.Center.Y - d.roi.Origin.Y
	vwin := expected.H / 4
	if anyDark(mask, yStart-vwin, yStart+vwin) {
		return 0, 0, false
	}
	bottom := scanForward(mask, yStart)
	top := scanBackward(mask, yStart)
	if bottom <= top {
		return 0, 0, false
	}
	aspect := float64(expected.W) / float64(bottom-top)
	if !d.template.AspectRange.Contains(aspect) {
		return 0, 0, false
	}
	top, bottom = d.anchorEdges(top, bottom)
	return top, bottom, true
}

// findVerticalByLabel segments the profile into bright runs and keeps the
// brightest run with an acceptable height.
func (d *Detector) findVerticalByLabel(profile []float64, mask []bool) (int, int, bool) {
	if uniform(mask) {
		return 0, 0, false
	}
	run, ok := selectBrightestRun(labelBrightRuns(profile, mask), d.template.HeightRange)
	if !ok {
		return 0, 0, false
	}
	top, bottom := d.anchorEdges(run.start, run.stop)
	return top, bottom, true
}

func (d *Detector) anchorEdges(top, bottom int) (int, int) {
	switch d.settings.CheckEdges {
	case CheckEdgesTop:
		return top, top + d.template.ExpectedSize.H
	case CheckEdgesBottom:
		return bottom - d.template.ExpectedSize.H, bottom
	default:
		return top, bottom
	}
}

// FindLeftEdge refines the horizontal position from the left edge of the hole.
// The right edge is not used as it may be swamped by a bright frame. It must
// follow a successful vertical find on the same image.
func (d *Detector) FindLeftEdge(img *film.Image) (Result, error) {
	if !d.result.Found {
		return d.result, ErrSequence
	}
	roi := d.roi.Rect()
	cy := d.result.Center.Y - roi.Y
	win := d.template.ExpectedSize.H / 5
	h := horizontalProfile(img, roi, cy-win, cy+win)

	xStart := clampInt(d.result.Center.X-roi.X, 0, len(h))
	prefix := h[:xStart]
	mask := darkMask(prefix, thresholdValue(prefix, d.settings.ThresholdFraction))
	left := scanBackward(mask, xStart)

	refined := d.result
	refined.Position.X = roi.X + left
	refined.Center.X = roi.X + left + d.template.ExpectedSize.W/2
	d.result = refined
	return d.result, nil
}
