package hardware

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Lamp switches the illumination LEDs.
type Lamp struct {
	pin Pin
}

// OpenLamp claims the named line.
func OpenLamp(name string) (*Lamp, error) {
	pin, err := OpenPin(name)
	if err != nil {
		return nil, err
	}
	return &Lamp{pin: pin}, nil
}

// NewLamp wraps a configured pin.
func NewLamp(pin Pin) *Lamp { return &Lamp{pin: pin} }

func (l *Lamp) On() error {
	if err := write(l.pin, gpio.High); err != nil {
		return fmt.Errorf("lamp on: %w", err)
	}
	return nil
}

func (l *Lamp) Off() error {
	if err := write(l.pin, gpio.Low); err != nil {
		return fmt.Errorf("lamp off: %w", err)
	}
	return nil
}
