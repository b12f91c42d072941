package motion

// StraightState is the state of mission 1.
type StraightState uint8

const (
	StraightIdle StraightState = iota
	StraightGoAB
	StraightStopAtB
)

func (s StraightState) String() string {
	switch s {
	case StraightIdle:
		return "Idle"
	case StraightGoAB:
		return "GoStraight_AB"
	case StraightStopAtB:
		return "StopAtB"
	default:
		return "Unknown"
	}
}

// CircuitState is the state of mission 2.
type CircuitState uint8

const (
	CircuitIdle CircuitState = iota
	CircuitStraightAB
	CircuitArcBC
	CircuitStraightCD
	CircuitArcDA
	CircuitDone
)

func (s CircuitState) String() string {
	switch s {
	case CircuitIdle:
		return "Idle"
	case CircuitStraightAB:
		return "Straight_AB"
	case CircuitArcBC:
		return "Arc_BC"
	case CircuitStraightCD:
		return "Straight_CD"
	case CircuitArcDA:
		return "Arc_DA"
	case CircuitDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// StraightState returns mission 1's current state.
func (c *Controller) StraightState() StraightState { return c.straight }

// CircuitState returns mission 2's current state.
func (c *Controller) CircuitState() CircuitState { return c.circuit }

// tickStraight drives from A on a held heading and stops at B, where the
// line first appears.
func (c *Controller) tickStraight(mask uint8) (MotorCommand, bool) {
	rising := !c.straightPrev && c.line

	switch c.straight {
	case StraightIdle:
		c.base = c.cruise
		c.ResetYawReference()
		c.straight = StraightGoAB
		c.straightPrompted = false
		return Stop, false

	case StraightGoAB:
		c.base = c.cruise
		cmd := c.holdHeading()
		if rising {
			c.straight = StraightStopAtB
			c.straightPrompted = false
		}
		return cmd, true

	case StraightStopAtB:
		if !c.straightPrompted {
			c.fire()
			c.straightPrompted = true
		}
		return Stop, true
	}
	return Stop, false
}

// tickCircuit runs the rectangle: straight legs on a held heading, arcs on
// the line. Rising edges mark B and D, falling edges mark C and A.
func (c *Controller) tickCircuit(mask uint8) (MotorCommand, bool) {
	rising := !c.circuitPrev && c.line
	falling := c.circuitPrev && !c.line

	switch c.circuit {
	case CircuitStraightAB:
		c.base = c.cruise
		cmd := c.holdHeading()
		if rising {
			c.fire()
			c.turn.Reset()
			c.circuit = CircuitArcBC
		}
		return cmd, true

	case CircuitArcBC:
		c.base = c.cruise
		cmd := c.followLine(mask)
		if falling {
			c.fire()
			c.ResetYawReference()
			c.circuit = CircuitStraightCD
		}
		return cmd, true

	case CircuitStraightCD:
		c.base = c.cruise
		cmd := c.holdHeading()
		if rising {
			c.fire()
			c.turn.Reset()
			c.circuit = CircuitArcDA
		}
		return cmd, true

	case CircuitArcDA:
		c.base = c.cruise
		cmd := c.followLine(mask)
		if falling {
			c.fire()
			c.circuit = CircuitDone
		}
		return cmd, true

	case CircuitDone:
		return Stop, true
	}
	return Stop, false
}
