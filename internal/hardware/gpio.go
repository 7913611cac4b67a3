package hardware

import (
	"fmt"
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Pin is the output side of a GPIO line.
type Pin interface {
	Out(level gpio.Level) error
}

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the host GPIO drivers. It is safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			initErr = fmt.Errorf("initialize gpio host: %w", err)
		}
	})
	return initErr
}

// OpenPin looks up a line by name in the GPIO registry and drives it low.
// An empty name returns a nil pin and no error so optional lines can be left
// unwired.
func OpenPin(name string) (Pin, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	if err := Init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %q not found", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("configure gpio %q as output: %w", name, err)
	}
	return p, nil
}

func write(p Pin, level gpio.Level) error {
	if p == nil {
		return nil
	}
	return p.Out(level)
}
