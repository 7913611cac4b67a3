package hardware

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// DefaultReelPulse is how long a DC reel motor runs for one takeup service.
const DefaultReelPulse = 35 * time.Millisecond

// Reel is a DC spool motor switched by one line. It has no direction.
type Reel struct {
	pin   Pin
	pulse time.Duration
	sleep func(time.Duration)
}

// OpenReel claims the named line. An empty name yields a reel that does
// nothing.
func OpenReel(name string, pulse time.Duration) (*Reel, error) {
	pin, err := OpenPin(name)
	if err != nil {
		return nil, err
	}
	return NewReel(pin, pulse), nil
}

// NewReel wraps a configured pin. A non-positive pulse uses DefaultReelPulse.
func NewReel(pin Pin, pulse time.Duration) *Reel {
	if pulse <= 0 {
		pulse = DefaultReelPulse
	}
	return &Reel{pin: pin, pulse: pulse, sleep: time.Sleep}
}

// SetDirection is a no-op; reels only ever wind on.
func (r *Reel) SetDirection(bool) error { return nil }

// Pulse runs the motor briefly.
func (r *Reel) Pulse() error {
	if r.pin == nil {
		return nil
	}
	if err := r.pin.Out(gpio.High); err != nil {
		return fmt.Errorf("reel on: %w", err)
	}
	r.sleep(r.pulse)
	if err := r.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("reel off: %w", err)
	}
	return nil
}

// Enable switches continuous running.
func (r *Reel) Enable(on bool) error {
	if err := write(r.pin, gpio.Level(on)); err != nil {
		return fmt.Errorf("reel enable: %w", err)
	}
	return nil
}
