package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"telecine/internal/logging"
)

// windPoll is how often a DC wind checks for StopWinding.
const windPoll = 10 * time.Millisecond

// Motors wires the physical channels. Feed sits on the supply side of the
// gate and Pull on the takeup side. Supply and Takeup drive the spools; Lamp
// is optional.
type Motors struct {
	Feed   Motor
	Pull   Motor
	Supply Motor
	Takeup Motor
	Lamp   Lamp
}

// Settings fixes the counter periods and the spool arrangement.
type Settings struct {
	// TensionPeriod skips one feed pulse every TensionPeriod steps.
	TensionPeriod int
	// TakeupPeriod services the receiving spool every TakeupPeriod steps.
	TakeupPeriod int
	// SpoolPeriod steps the unloading spool once every SpoolPeriod takeup
	// services. Only used with FourStepper.
	SpoolPeriod int
	// FourStepper selects stepper spools instead of pulsed DC reel motors.
	FourStepper bool
}

// DefaultSettings matches the periods of the reference rig.
func DefaultSettings() Settings {
	return Settings{TensionPeriod: 50, TakeupPeriod: 550, SpoolPeriod: 4}
}

// State is a snapshot of the controller. Steps is the lifetime signed
// count of pull-side steps.
type State struct {
	Mode           Mode
	Direction      Direction
	TensionCounter int
	TakeupCounter  int
	SpoolCounter   int
	Winding        bool
	Steps          int
}

// Controller sequences the motors. It reports no soft failures; a stalled
// transport is only visible through image feedback.
type Controller struct {
	motors   Motors
	settings Settings
	logger   *slog.Logger
	state    State
	stop     atomic.Bool
}

// New constructs a controller. Nil motors are treated as absent channels.
func New(motors Motors, settings Settings, logger *slog.Logger) (*Controller, error) {
	if motors.Feed == nil || motors.Pull == nil {
		return nil, errors.New("transport: feed and pull motors are required")
	}
	if motors.Supply == nil {
		motors.Supply = nopMotor{}
	}
	if motors.Takeup == nil {
		motors.Takeup = nopMotor{}
	}
	if motors.Lamp == nil {
		motors.Lamp = nopLamp{}
	}
	def := DefaultSettings()
	if settings.TensionPeriod <= 0 {
		settings.TensionPeriod = def.TensionPeriod
	}
	if settings.TakeupPeriod <= 0 {
		settings.TakeupPeriod = def.TakeupPeriod
	}
	if settings.SpoolPeriod <= 0 {
		settings.SpoolPeriod = def.SpoolPeriod
	}
	c := &Controller{
		motors:   motors,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "transport"),
	}
	c.resetCounters()
	return c, nil
}

// State returns a snapshot of the controller state.
func (c *Controller) State() State { return c.state }

// Settings returns the construction settings.
func (c *Controller) Settings() Settings { return c.settings }

// StepForward advances the film n steps.
func (c *Controller) StepForward(n int) error { return c.Step(Forward, n) }

// StepBackward retracts the film n steps.
func (c *Controller) StepBackward(n int) error { return c.Step(Backward, n) }

// Step moves the film n steps in dir. A change of direction resets the
// tension and takeup counters and settles the direction lines before the
// first pulse.
func (c *Controller) Step(dir Direction, n int) error {
	if dir != Forward && dir != Backward {
		return fmt.Errorf("transport: invalid direction %v", dir)
	}
	if c.state.Winding {
		c.StopWinding()
		c.finishWinding()
	}
	if n <= 0 {
		return nil
	}
	if dir != c.state.Direction {
		if err := c.changeDirection(dir); err != nil {
			return err
		}
	}
	if dir == Forward {
		c.state.Mode = SteppingForward
	} else {
		c.state.Mode = SteppingBackward
	}
	defer func() { c.state.Mode = Idle }()

	leading, trailing, unloading, receiving := c.roles(dir)
	for i := 0; i < n; i++ {
		c.state.TensionCounter--
		if c.state.TensionCounter <= 0 {
			c.state.TensionCounter = c.settings.TensionPeriod
		} else if err := leading.Pulse(); err != nil {
			return fmt.Errorf("pulse leading motor: %w", err)
		}
		if err := trailing.Pulse(); err != nil {
			return fmt.Errorf("pulse trailing motor: %w", err)
		}
		c.state.Steps += dir.Sign()

		c.state.TakeupCounter--
		if c.state.TakeupCounter <= 0 {
			c.state.TakeupCounter = c.settings.TakeupPeriod
			if err := c.serviceSpools(unloading, receiving); err != nil {
				return err
			}
		}
	}
	return nil
}

// roles maps the physical motors onto their function for dir.
func (c *Controller) roles(dir Direction) (leading, trailing, unloading, receiving Motor) {
	if dir == Forward {
		return c.motors.Feed, c.motors.Pull, c.motors.Supply, c.motors.Takeup
	}
	return c.motors.Pull, c.motors.Feed, c.motors.Takeup, c.motors.Supply
}

func (c *Controller) serviceSpools(unloading, receiving Motor) error {
	if c.settings.FourStepper {
		c.state.SpoolCounter--
		if c.state.SpoolCounter <= 0 {
			c.state.SpoolCounter = c.settings.SpoolPeriod
			if err := unloading.Pulse(); err != nil {
				return fmt.Errorf("step unloading spool: %w", err)
			}
		}
	}
	if err := receiving.Pulse(); err != nil {
		return fmt.Errorf("pulse receiving spool: %w", err)
	}
	return nil
}

func (c *Controller) changeDirection(dir Direction) error {
	c.state.Direction = dir
	c.resetCounters()
	if err := c.applyDirection(dir); err != nil {
		return err
	}
	c.logger.Debug("direction changed", logging.String("direction", dir.String()))
	return nil
}

func (c *Controller) applyDirection(dir Direction) error {
	forward := dir != Backward
	if err := c.motors.Feed.SetDirection(forward); err != nil {
		return fmt.Errorf("set feed direction: %w", err)
	}
	if err := c.motors.Pull.SetDirection(forward); err != nil {
		return fmt.Errorf("set pull direction: %w", err)
	}
	if c.settings.FourStepper {
		if err := c.motors.Supply.SetDirection(forward); err != nil {
			return fmt.Errorf("set supply direction: %w", err)
		}
		if err := c.motors.Takeup.SetDirection(forward); err != nil {
			return fmt.Errorf("set takeup direction: %w", err)
		}
	}
	return nil
}

func (c *Controller) resetCounters() {
	c.state.TensionCounter = c.settings.TensionPeriod
	c.state.TakeupCounter = c.settings.TakeupPeriod
	if c.state.SpoolCounter <= 0 {
		c.state.SpoolCounter = c.settings.SpoolPeriod
	}
}

// TensionFilm drives the feed and pull motors against each other for steps
// pulses to take up slack, then restores the direction lines. Counters and
// the step total are unchanged.
func (c *Controller) TensionFilm(steps int) error {
	if steps <= 0 {
		return nil
	}
	if err := c.motors.Feed.SetDirection(false); err != nil {
		return fmt.Errorf("set feed direction: %w", err)
	}
	if err := c.motors.Pull.SetDirection(true); err != nil {
		return fmt.Errorf("set pull direction: %w", err)
	}
	for i := 0; i < steps; i++ {
		if err := c.motors.Feed.Pulse(); err != nil {
			return fmt.Errorf("pulse feed motor: %w", err)
		}
		if err := c.motors.Pull.Pulse(); err != nil {
			return fmt.Errorf("pulse pull motor: %w", err)
		}
	}
	return c.applyDirection(c.state.Direction)
}

// Wind runs the spools only, forward onto the takeup spool or backward onto
// the supply spool, until ctx is done or StopWinding is called. Gate motors
// do not move. With DC reels the receiving reel simply runs continuously.
func (c *Controller) Wind(ctx context.Context, dir Direction) error {
	if dir != Forward && dir != Backward {
		return fmt.Errorf("transport: invalid direction %v", dir)
	}
	if dir != c.state.Direction {
		if err := c.changeDirection(dir); err != nil {
			return err
		}
	}
	c.stop.Store(false)
	c.state.Mode = Winding
	c.state.Winding = true
	defer c.finishWinding()

	_, _, unloading, receiving := c.roles(dir)
	c.logger.Info("winding started", logging.String("direction", dir.String()))

	if !c.settings.FourStepper {
		if err := unloading.Enable(false); err != nil {
			return fmt.Errorf("stop unloading reel: %w", err)
		}
		if err := receiving.Enable(true); err != nil {
			return fmt.Errorf("start receiving reel: %w", err)
		}
		ticker := time.NewTicker(windPoll)
		defer ticker.Stop()
		for !c.stop.Load() {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
		return nil
	}

	for !c.stop.Load() {
		if ctx.Err() != nil {
			return nil
		}
		if err := c.serviceSpools(unloading, receiving); err != nil {
			return err
		}
	}
	return nil
}

// StopWinding ends a Wind call. It is safe to call from another goroutine.
func (c *Controller) StopWinding() {
	c.stop.Store(true)
}

func (c *Controller) finishWinding() {
	if !c.state.Winding {
		return
	}
	c.state.Winding = false
	c.state.Mode = Idle
	if !c.settings.FourStepper {
		if err := c.motors.Supply.Enable(false); err != nil {
			c.logger.Warn("supply reel stop failed", logging.Error(err))
		}
		if err := c.motors.Takeup.Enable(false); err != nil {
			c.logger.Warn("takeup reel stop failed", logging.Error(err))
		}
	}
	c.logger.Info("winding stopped")
}

// Enable energises or releases the stepper coils.
func (c *Controller) Enable(on bool) error {
	motors := []Motor{c.motors.Feed, c.motors.Pull}
	if c.settings.FourStepper {
		motors = append(motors, c.motors.Supply, c.motors.Takeup)
	}
	var errs []error
	for _, m := range motors {
		if err := m.Enable(on); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LampOn switches the illumination on.
func (c *Controller) LampOn() error { return c.motors.Lamp.On() }

// LampOff switches the illumination off.
func (c *Controller) LampOff() error { return c.motors.Lamp.Off() }

// Close stops winding, switches the lamp off and releases the steppers. All
// steps are attempted; the errors are joined.
func (c *Controller) Close() error {
	c.StopWinding()
	c.finishWinding()
	return errors.Join(c.LampOff(), c.Enable(false))
}
