// Package pid implements a discrete, tick-based PID controller.
//
// The controller is not time-scaled: the integral is the raw sum of errors
// and the derivative is the raw difference between consecutive errors, so
// the effective Ki and Kd depend on the rate Compute is called at.
package pid

import (
	"golang.org/x/exp/constraints"
)

// Gains is a (kp, ki, kd) triple.
type Gains[T constraints.Float] struct {
	Kp T `json:"kp"`
	Ki T `json:"ki"`
	Kd T `json:"kd"`
}

// Controller is a PID controller with output saturation. The integral
// accumulator itself is not bounded.
type Controller[T constraints.Float] struct {
	kp, ki, kd     T
	outMin, outMax T
	integral       T
	lastError      T
	firstRun       bool
}

// New returns a controller with the given gains and output limits.
func New[T constraints.Float](kp, ki, kd, outMin, outMax T) *Controller[T] {
	return &Controller[T]{
		kp:       kp,
		ki:       ki,
		kd:       kd,
		outMin:   outMin,
		outMax:   outMax,
		firstRun: true,
	}
}

// Compute runs one tick and returns the clamped output.
func (c *Controller[T]) Compute(setpoint, measured T) T {
	err := setpoint - measured

	p := c.kp * err

	c.integral += err
	i := c.ki * c.integral

	var d T
	if c.firstRun {
		c.firstRun = false
	} else {
		d = c.kd * (err - c.lastError)
	}
	c.lastError = err

	return min(max(p+i+d, c.outMin), c.outMax)
}

// Reset clears the integral and the derivative history.
func (c *Controller[T]) Reset() {
	c.integral = 0
	c.lastError = 0
	c.firstRun = true
}

// SetTunings replaces the gains without touching the accumulated state.
func (c *Controller[T]) SetTunings(kp, ki, kd T) {
	c.kp, c.ki, c.kd = kp, ki, kd
}

// Tunings returns the current gains.
func (c *Controller[T]) Tunings() Gains[T] {
	return Gains[T]{Kp: c.kp, Ki: c.ki, Kd: c.kd}
}

// Integral returns the raw accumulated error.
func (c *Controller[T]) Integral() T { return c.integral }

// Limits returns the output saturation bounds.
func (c *Controller[T]) Limits() (outMin, outMax T) { return c.outMin, c.outMax }
