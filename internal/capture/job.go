package capture

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"telecine/internal/config"
	"telecine/internal/film"
	"telecine/internal/textutil"
	"telecine/internal/transport"
)

const (
	defaultMaxConsecutiveFailures = 5
	defaultQueueCapacity          = 5
	defaultExtension              = "png"
)

// Crop places the saved picture area relative to the perforation center. A
// zero width or height saves the whole frame.
type Crop struct {
	OffsetX int
	OffsetY int
	Width   int
	Height  int
}

// Rect returns the crop rectangle for a perforation centered at c.
func (c Crop) Rect(center film.Point) film.Rect {
	return film.Rect{X: center.X + c.OffsetX, Y: center.Y + c.OffsetY, W: c.Width, H: c.Height}
}

// Whole reports whether the crop keeps the full frame.
func (c Crop) Whole() bool { return c.Width <= 0 || c.Height <= 0 }

// Job describes one scan. Frames are numbered from StartFrame to EndFrame
// inclusive, counting down when EndFrame is smaller. Reverse runs the
// transport backward independently of the numbering.
type Job struct {
	Name                   string
	StartFrame             int
	EndFrame               int
	Reverse                bool
	Bracket                bool
	MaxConsecutiveFailures int
	Extension              string
	OutputDir              string
	Crop                   Crop
	QueueCapacity          int
}

// JobFromConfig builds a job from the [job], [crop] and [paths] sections.
func JobFromConfig(cfg *config.Config) Job {
	return Job{
		Name:                   cfg.Job.Name,
		StartFrame:             cfg.Job.StartFrame,
		EndFrame:               cfg.Job.EndFrame,
		Reverse:                cfg.Job.Reverse,
		Bracket:                cfg.Job.Bracket,
		MaxConsecutiveFailures: cfg.Job.MaxConsecutiveFailures,
		Extension:              cfg.Job.Extension,
		OutputDir:              cfg.Paths.OutputDir,
		Crop: Crop{
			OffsetX: cfg.Crop.OffsetX,
			OffsetY: cfg.Crop.OffsetY,
			Width:   cfg.Crop.Width,
			Height:  cfg.Crop.Height,
		},
		QueueCapacity: cfg.Job.QueueCapacity,
	}
}

// Step is +1 when frame numbers count up and -1 when they count down.
func (j Job) Step() int {
	if j.EndFrame < j.StartFrame {
		return -1
	}
	return 1
}

// FrameCount is the number of frames in the inclusive range.
func (j Job) FrameCount() int {
	n := j.EndFrame - j.StartFrame
	if n < 0 {
		n = -n
	}
	return n + 1
}

// Direction is the transport direction for the job.
func (j Job) Direction() transport.Direction {
	if j.Reverse {
		return transport.Backward
	}
	return transport.Forward
}

// Folder is the sanitized job name used for the output directory.
func (j Job) Folder() string { return textutil.SanitizeJobName(j.Name) }

// Dir is the directory frames are written to.
func (j Job) Dir() string { return filepath.Join(j.OutputDir, j.Folder()) }

// FileName returns the name of a frame image. exposure is 0 for a single
// capture and 1 or 2 for the images of a bracketed pair.
func (j Job) FileName(frame, exposure int, failed bool) string {
	name := fmt.Sprintf("img-%05d", frame)
	if exposure > 0 {
		name = fmt.Sprintf("%s-%d", name, exposure)
	}
	if failed {
		name = "failed-" + name
	}
	return name + "." + j.Extension
}

func (j Job) normalized() (Job, error) {
	if j.Folder() == "" {
		return j, fmt.Errorf("job name %q has no usable characters", j.Name)
	}
	if strings.TrimSpace(j.OutputDir) == "" {
		return j, errors.New("job output directory required")
	}
	if j.StartFrame < 0 || j.EndFrame < 0 {
		return j, errors.New("job frames must be >= 0")
	}
	j.Extension = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(j.Extension)), ".")
	switch j.Extension {
	case "":
		j.Extension = defaultExtension
	case "jpeg":
		j.Extension = "jpg"
	case "png", "jpg":
	default:
		return j, fmt.Errorf("unsupported image extension %q", j.Extension)
	}
	if j.MaxConsecutiveFailures <= 0 {
		j.MaxConsecutiveFailures = defaultMaxConsecutiveFailures
	}
	if j.QueueCapacity <= 0 {
		j.QueueCapacity = defaultQueueCapacity
	}
	return j, nil
}

// AutoCrop derives a picture crop from the measured perforation: 1.2 frame
// pitches tall with a 4:3 aspect, starting at the perforation's x center.
// Super 8 frames are centered on the perforation; standard 8 frames start at
// its middle.
func AutoCrop(format film.Format, perforation film.Size) Crop {
	h := int(math.Round(float64(perforation.H) * format.FrameHeightMultiplier() * 1.2))
	w := int(math.Round(float64(h) * 1.3333))
	c := Crop{Width: w, Height: h, OffsetY: -(h / 2)}
	if format == film.Standard8 {
		c.OffsetY = -(perforation.H / 2)
	}
	return c
}
