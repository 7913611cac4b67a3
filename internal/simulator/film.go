package simulator

import (
	"context"
	"errors"
	"math"

	"telecine/internal/camera"
	"telecine/internal/film"
	"telecine/internal/transport"
)

// Settings describe the virtual film strip and the camera looking at it.
type Settings struct {
	Format      film.Format
	ImageSize   film.Size
	Perforation film.Size
	// CenterX is the column of the perforation centers.
	CenterX int
	// PixelsPerStep is how far the image moves for one pull-side step.
	PixelsPerStep float64
	// Pitch is the distance between perforation centers. Zero derives it
	// from the perforation height and the format multiplier.
	Pitch float64
	// Offset is the row of perforation zero at transport position zero.
	Offset float64
	Base   uint8
	Hole   uint8
}

// DefaultSettings is a Super8 strip whose first perforation starts centered
// in the default detector ROI.
func DefaultSettings() Settings {
	return Settings{
		Format:        film.Super8,
		ImageSize:     film.Size{W: 400, H: 600},
		Perforation:   film.Size{W: 46, H: 58},
		CenterX:       60,
		PixelsPerStep: 2,
		Offset:        300,
		Base:          40,
		Hole:          250,
	}
}

// Film is a strip of film threaded through a simulated gate. It implements
// the transport motor contract for all four channels and the camera
// contract. A Film is driven from one goroutine.
type Film struct {
	settings    Settings
	position    float64
	feedForward bool
	pullForward bool
	lamp        bool
	captures    int
	obscured    map[int]bool
	closed      bool

	supplyPulses int
	takeupPulses int
}

var _ camera.Camera = (*Film)(nil)

// New threads a strip.
func New(settings Settings) *Film {
	if settings.Pitch <= 0 {
		settings.Pitch = PixelsPerFrame(settings.Format, settings.Perforation.H)
	}
	return &Film{
		settings:    settings,
		feedForward: true,
		pullForward: true,
		lamp:        true,
		obscured:    map[int]bool{},
	}
}

// PixelsPerFrame is the frame pitch implied by a perforation height.
func PixelsPerFrame(format film.Format, perforationHeight int) float64 {
	return float64(perforationHeight) * format.FrameHeightMultiplier()
}

// Settings returns the strip geometry.
func (f *Film) Settings() Settings { return f.settings }

// Position is the film travel in pixels since threading.
func (f *Film) Position() float64 { return f.position }

// StepsPerFrame is the exact number of steps between perforations.
func (f *Film) StepsPerFrame() float64 { return f.settings.Pitch / f.settings.PixelsPerStep }

// Captures is the number of frames taken so far.
func (f *Film) Captures() int { return f.captures }

// SpoolPulses reports how often each spool channel was pulsed.
func (f *Film) SpoolPulses() (supply, takeup int) { return f.supplyPulses, f.takeupPulses }

// ObscureCaptures makes count captures starting at the 1-based capture
// number from render without perforations, as if the lamp had failed.
func (f *Film) ObscureCaptures(from, count int) {
	for i := 0; i < count; i++ {
		f.obscured[from+i] = true
	}
}

// Motors returns the transport channels of the strip.
func (f *Film) Motors() transport.Motors {
	return transport.Motors{
		Feed:   &gateMotor{film: f, feed: true},
		Pull:   &gateMotor{film: f},
		Supply: &spoolMotor{count: &f.supplyPulses},
		Takeup: &spoolMotor{count: &f.takeupPulses},
		Lamp:   lamp{film: f},
	}
}

// Capture renders the gate.
func (f *Film) Capture(ctx context.Context) (*film.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.closed {
		return nil, camera.ErrClosed
	}
	f.captures++
	return f.render(f.settings.Hole, f.obscured[f.captures]), nil
}

// CaptureBracket renders the gate twice; the second exposure has a brighter
// frame area.
func (f *Film) CaptureBracket(ctx context.Context) (*film.Image, *film.Image, error) {
	first, err := f.Capture(ctx)
	if err != nil {
		return nil, nil, err
	}
	second := first.Clone()
	f.fillFrameArea(second, 200)
	return first, second, nil
}

// Close ends capture.
func (f *Film) Close() error {
	f.closed = true
	return nil
}

func (f *Film) render(hole uint8, obscured bool) *film.Image {
	s := f.settings
	img := film.NewImage(s.ImageSize.W, s.ImageSize.H)
	img.Fill(film.Rect{W: s.ImageSize.W, H: s.ImageSize.H}, s.Base)
	f.fillFrameArea(img, 120)
	if obscured || !f.lamp {
		return img
	}
	half := float64(s.Perforation.H) / 2
	// Perforation k sits at Offset + k*Pitch - position.
	first := int(math.Floor((f.position - s.Offset - half) / s.Pitch))
	last := int(math.Ceil((f.position - s.Offset + float64(s.ImageSize.H) + half) / s.Pitch))
	for k := first; k <= last; k++ {
		cy := s.Offset + float64(k)*s.Pitch - f.position
		top := int(math.Round(cy)) - s.Perforation.H/2
		img.Fill(film.Rect{
			X: s.CenterX - s.Perforation.W/2,
			Y: top,
			W: s.Perforation.W,
			H: s.Perforation.H,
		}, hole)
	}
	return img
}

// fillFrameArea paints the picture area to the right of the perforations.
func (f *Film) fillFrameArea(img *film.Image, level uint8) {
	s := f.settings
	x := s.CenterX + s.Perforation.W*3/2
	img.Fill(film.Rect{X: x, W: s.ImageSize.W - x, H: s.ImageSize.H}, level)
}

// gateMotor moves the film when it is the trailing motor. Opposed gate
// motors only tension the film.
type gateMotor struct {
	film *Film
	feed bool
}

func (m *gateMotor) SetDirection(forward bool) error {
	if m.feed {
		m.film.feedForward = forward
	} else {
		m.film.pullForward = forward
	}
	return nil
}

func (m *gateMotor) Pulse() error {
	f := m.film
	if f.closed {
		return errors.New("simulator: transport closed")
	}
	if f.feedForward != f.pullForward {
		return nil
	}
	switch {
	case !m.feed && f.pullForward:
		f.position += f.settings.PixelsPerStep
	case m.feed && !f.feedForward:
		f.position -= f.settings.PixelsPerStep
	}
	return nil
}

func (m *gateMotor) Enable(bool) error { return nil }

type spoolMotor struct {
	count *int
}

func (m *spoolMotor) SetDirection(bool) error { return nil }
func (m *spoolMotor) Pulse() error            { *m.count++; return nil }
func (m *spoolMotor) Enable(bool) error       { return nil }

type lamp struct{ film *Film }

func (l lamp) On() error  { l.film.lamp = true; return nil }
func (l lamp) Off() error { l.film.lamp = false; return nil }
