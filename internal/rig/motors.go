package rig

import (
	"fmt"
	"time"

	"telecine/internal/config"
	"telecine/internal/hardware"
	"telecine/internal/transport"
)

// OpenMotors claims the GPIO lines named in [pins]. With four_stepper the
// spools are steppers; otherwise they are pulsed DC reel motors.
func OpenMotors(cfg *config.Config) (transport.Motors, error) {
	if err := hardware.Init(); err != nil {
		return transport.Motors{}, err
	}
	p := cfg.Pins
	timing := stepperTiming(cfg)

	var m transport.Motors
	feed, err := hardware.OpenStepper(hardware.StepperPins{Step: p.FeedStep, Dir: p.FeedDir, Enable: p.FeedEnable}, timing)
	if err != nil {
		return m, fmt.Errorf("feed motor: %w", err)
	}
	pull, err := hardware.OpenStepper(hardware.StepperPins{Step: p.PullStep, Dir: p.PullDir, Enable: p.PullEnable}, timing)
	if err != nil {
		return m, fmt.Errorf("pull motor: %w", err)
	}
	m.Feed, m.Pull = feed, pull

	if cfg.Transport.FourStepper {
		supply, err := hardware.OpenStepper(hardware.StepperPins{Step: p.SupplyStep, Dir: p.SupplyDir, Enable: p.SupplyEnable}, timing)
		if err != nil {
			return m, fmt.Errorf("supply spool: %w", err)
		}
		takeup, err := hardware.OpenStepper(hardware.StepperPins{Step: p.TakeupStep, Dir: p.TakeupDir, Enable: p.TakeupEnable}, timing)
		if err != nil {
			return m, fmt.Errorf("takeup spool: %w", err)
		}
		m.Supply, m.Takeup = supply, takeup
	} else {
		pulse := time.Duration(cfg.Transport.ReelPulseMS) * time.Millisecond
		supply, err := hardware.OpenReel(p.SupplyReel, pulse)
		if err != nil {
			return m, fmt.Errorf("supply reel: %w", err)
		}
		takeup, err := hardware.OpenReel(p.TakeupReel, pulse)
		if err != nil {
			return m, fmt.Errorf("takeup reel: %w", err)
		}
		m.Supply, m.Takeup = supply, takeup
	}

	lamp, err := hardware.OpenLamp(p.Lamp)
	if err != nil {
		return m, fmt.Errorf("lamp: %w", err)
	}
	m.Lamp = lamp
	return m, nil
}
