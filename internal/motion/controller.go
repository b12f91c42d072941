package motion

import (
	"github.com/relabs-tech/line_follower/internal/pid"
)

// Mission identifiers. Any other value disables driving.
const (
	MissionStraight = 1 // A to B, stop at B
	MissionCircuit  = 2 // A, B, C, D and back to A
)

// Channel selects one of the two PID loops.
type Channel uint8

const (
	ChannelTurn    Channel = 0 // line position loop
	ChannelForward Channel = 1 // heading hold loop
)

func (ch Channel) String() string {
	switch ch {
	case ChannelTurn:
		return "turn"
	case ChannelForward:
		return "forward"
	default:
		return "unknown"
	}
}

// DefaultCruiseSpeed is the base speed both missions drive at.
const DefaultCruiseSpeed = 0.10

var (
	DefaultTurnGains    = pid.Gains[float64]{Kp: 0.1, Ki: 0, Kd: 0.2}
	DefaultForwardGains = pid.Gains[float64]{Kp: 1.0, Ki: 0, Kd: 0}
)

// Prompter emits a short, non-blocking feedback pulse.
type Prompter interface {
	Fire()
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func()

func (f PrompterFunc) Fire() { f() }

// Option configures a Controller.
type Option func(*Controller)

// WithCruiseSpeed sets the base speed used by the missions.
func WithCruiseSpeed(v float64) Option {
	return func(c *Controller) { c.cruise = v }
}

// WithGains sets the initial gains of one loop.
func WithGains(ch Channel, g pid.Gains[float64]) Option {
	return func(c *Controller) { c.TunePid(ch, g.Kp, g.Ki, g.Kd) }
}

// Controller turns the line-sensor mask and the current yaw into motor
// commands while stepping the active mission's state machine.
// It is owned by the motion goroutine and is not safe for concurrent use.
type Controller struct {
	turn    *pid.Controller[float64]
	forward *pid.Controller[float64]
	prompt  Prompter

	base   float64
	cruise float64

	yaw       float64
	yawRef    float64
	yawRefSet bool

	mission int

	straight         StraightState
	straightPrev     bool
	straightPrompted bool

	circuit     CircuitState
	circuitPrev bool

	last    MotorCommand
	driven  bool
	line    bool
	prompts int
}

// New returns a controller with both missions idle.
func New(prompt Prompter, opts ...Option) *Controller {
	if prompt == nil {
		prompt = PrompterFunc(func() {})
	}
	c := &Controller{
		turn:    pid.New(DefaultTurnGains.Kp, DefaultTurnGains.Ki, DefaultTurnGains.Kd, -1, 1),
		forward: pid.New(DefaultForwardGains.Kp, DefaultForwardGains.Ki, DefaultForwardGains.Kd, -1, 1),
		prompt:  prompt,
		cruise:  DefaultCruiseSpeed,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetBaseSpeed sets the base speed, and the speed missions will drive at.
func (c *Controller) SetBaseSpeed(v float64) {
	c.base = v
	c.cruise = v
}

// TunePid updates the gains of one loop. Unknown channels are ignored.
func (c *Controller) TunePid(ch Channel, kp, ki, kd float64) {
	switch ch {
	case ChannelTurn:
		c.turn.SetTunings(kp, ki, kd)
	case ChannelForward:
		c.forward.SetTunings(kp, ki, kd)
	}
}

// Gains returns the gains of one loop.
func (c *Controller) Gains(ch Channel) (pid.Gains[float64], bool) {
	switch ch {
	case ChannelTurn:
		return c.turn.Tunings(), true
	case ChannelForward:
		return c.forward.Tunings(), true
	}
	return pid.Gains[float64]{}, false
}

// ResetYawReference makes the next heading-hold tick latch the current yaw.
func (c *Controller) ResetYawReference() {
	c.yawRefSet = false
	c.forward.Reset()
}

// SetYawReference holds the given heading from now on.
func (c *Controller) SetYawReference(deg float64) {
	c.yawRef = deg
	c.yawRefSet = true
	c.forward.Reset()
}

// OnMissionChanged records the new mission and returns both state machines
// to Idle. No prompt is fired.
func (c *Controller) OnMissionChanged(id int) {
	c.mission = id
	c.straight = StraightIdle
	c.straightPrompted = false
	c.circuit = CircuitIdle
}

// StartCircuit starts mission 2 at A. The vehicle is assumed to be
// stationary off the line, so the previous line state is seeded as absent.
func (c *Controller) StartCircuit() {
	c.circuitPrev = false
	c.ResetYawReference()
	c.circuit = CircuitStraightAB
	c.fire()
}

// Tick runs one motion-control step. It returns the command to apply and
// whether the motors should be driven this tick at all.
func (c *Controller) Tick(mission int, mask uint8, yaw float64) (MotorCommand, bool) {
	if mission != c.mission {
		c.OnMissionChanged(mission)
	}
	c.yaw = yaw
	c.line = LinePresent(mask)

	var (
		cmd MotorCommand
		ok  bool
	)
	switch mission {
	case MissionStraight:
		cmd, ok = c.tickStraight(mask)
		c.straightPrev = c.line
	case MissionCircuit:
		if c.circuit == CircuitIdle {
			c.StartCircuit()
		} else {
			cmd, ok = c.tickCircuit(mask)
		}
		c.circuitPrev = c.line
	default:
		c.straightPrev = c.line
		c.circuitPrev = c.line
	}

	c.last, c.driven = cmd, ok
	return cmd, ok
}

func (c *Controller) fire() {
	c.prompts++
	c.prompt.Fire()
}

// holdHeading drives straight on the yaw loop alone.
func (c *Controller) holdHeading() MotorCommand {
	if !c.yawRefSet {
		c.yawRef = c.yaw
		c.yawRefSet = true
	}
	yawErr := WrapAngle(c.yaw - c.yawRef)
	yawAdjust := c.forward.Compute(0, yawErr)
	return Mix(c.base, 0, yawAdjust)
}

// followLine drives on the line-position loop alone, stopping if the line
// is lost.
func (c *Controller) followLine(mask uint8) MotorCommand {
	pe, err := PositionError(mask)
	if err != nil {
		return Stop
	}
	turnAdjust := c.turn.Compute(0, pe)
	return Mix(c.base, turnAdjust, 0)
}

// Status is a snapshot of the controller for telemetry.
type Status struct {
	Mission     int          `json:"mission"`
	State       string       `json:"state"`
	Command     MotorCommand `json:"command"`
	Driven      bool         `json:"driven"`
	LinePresent bool         `json:"line_present"`
	BaseSpeed   float64      `json:"base_speed"`
	YawRef      float64      `json:"yaw_ref"`
	YawRefSet   bool         `json:"yaw_ref_set"`
	Prompts     int          `json:"prompts"`
}

// Status returns the controller state after the last Tick.
func (c *Controller) Status() Status {
	st := Status{
		Mission:     c.mission,
		Command:     c.last,
		Driven:      c.driven,
		LinePresent: c.line,
		BaseSpeed:   c.base,
		YawRef:      c.yawRef,
		YawRefSet:   c.yawRefSet,
		Prompts:     c.prompts,
	}
	switch c.mission {
	case MissionStraight:
		st.State = c.straight.String()
	case MissionCircuit:
		st.State = c.circuit.String()
	default:
		st.State = "Disabled"
	}
	return st
}

// TurnIntegral exposes the line-position loop's accumulated error.
func (c *Controller) TurnIntegral() float64 { return c.turn.Integral() }
