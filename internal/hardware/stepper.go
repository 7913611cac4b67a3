package hardware

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// StepperPins names the lines of one step/direction driver.
type StepperPins struct {
	Step   string
	Dir    string
	Enable string
}

// Timing bounds each step. Pulse is how long the step line is held high and
// Interval the rest time after it falls.
type Timing struct {
	Pulse    time.Duration
	Interval time.Duration
}

// Stepper drives a step/direction controller such as the A4988 or Big Easy
// Driver. The enable line is active low.
type Stepper struct {
	step   Pin
	dir    Pin
	enable Pin
	timing Timing
	sleep  func(time.Duration)
}

// OpenStepper claims the named lines and energises the coils.
func OpenStepper(pins StepperPins, timing Timing) (*Stepper, error) {
	step, err := OpenPin(pins.Step)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, fmt.Errorf("stepper requires a step pin")
	}
	dir, err := OpenPin(pins.Dir)
	if err != nil {
		return nil, err
	}
	enable, err := OpenPin(pins.Enable)
	if err != nil {
		return nil, err
	}
	return NewStepper(step, dir, enable, timing), nil
}

// NewStepper wraps already configured pins. dir and enable may be nil.
func NewStepper(step, dir, enable Pin, timing Timing) *Stepper {
	return &Stepper{step: step, dir: dir, enable: enable, timing: timing, sleep: time.Sleep}
}

// SetDirection sets the direction line; high is forward.
func (s *Stepper) SetDirection(forward bool) error {
	if err := write(s.dir, gpio.Level(forward)); err != nil {
		return fmt.Errorf("set direction: %w", err)
	}
	return nil
}

// Pulse issues one step on the rising edge.
func (s *Stepper) Pulse() error {
	if err := s.step.Out(gpio.High); err != nil {
		return fmt.Errorf("step high: %w", err)
	}
	s.pause(s.timing.Pulse)
	if err := s.step.Out(gpio.Low); err != nil {
		return fmt.Errorf("step low: %w", err)
	}
	s.pause(s.timing.Interval)
	return nil
}

// Enable energises (true) or releases the coils.
func (s *Stepper) Enable(on bool) error {
	if err := write(s.enable, gpio.Level(!on)); err != nil {
		return fmt.Errorf("set enable: %w", err)
	}
	return nil
}

func (s *Stepper) pause(d time.Duration) {
	if d > 0 {
		s.sleep(d)
	}
}
