package transport

// Motor is one drive channel. Steppers advance one step per Pulse; DC reel
// motors run briefly on Pulse and continuously while enabled.
type Motor interface {
	SetDirection(forward bool) error
	Pulse() error
	Enable(on bool) error
}

// Lamp is the film illumination.
type Lamp interface {
	On() error
	Off() error
}

// Direction of film travel through the gate.
type Direction int

const (
	// None is the direction of a controller that has not stepped yet.
	None     Direction = 0
	Forward  Direction = 1
	Backward Direction = -1
)

// Sign returns +1 for Forward, -1 for Backward and 0 otherwise.
func (d Direction) Sign() int { return int(d) }

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction { return -d }

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "none"
	}
}

// Mode is the controller state machine position.
type Mode int

const (
	Idle Mode = iota
	SteppingForward
	SteppingBackward
	Winding
)

func (m Mode) String() string {
	switch m {
	case SteppingForward:
		return "stepping-forward"
	case SteppingBackward:
		return "stepping-backward"
	case Winding:
		return "winding"
	default:
		return "idle"
	}
}

// nopMotor stands in for absent channels such as the spool steppers of a
// two-motor rig without reel motors.
type nopMotor struct{}

func (nopMotor) SetDirection(bool) error { return nil }
func (nopMotor) Pulse() error            { return nil }
func (nopMotor) Enable(bool) error       { return nil }

type nopLamp struct{}

func (nopLamp) On() error  { return nil }
func (nopLamp) Off() error { return nil }
