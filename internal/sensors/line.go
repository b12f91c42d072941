package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// LineReader samples the reflectance sensor array.
type LineReader interface {
	ReadMask() (uint8, error)
}

// LineSensor reads five digital reflectance sensors. Bit i of the mask is
// set when pin i reads high.
type LineSensor struct {
	pins []gpio.PinIn
}

// NewLineSensor looks up the named GPIOs, left to right, and configures
// them as plain inputs.
func NewLineSensor(names []string) (*LineSensor, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("line sensor: periph host init: %w", err)
	}
	pins := make([]gpio.PinIn, 0, len(names))
	for _, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("line sensor: pin %q not found", name)
		}
		pins = append(pins, p)
	}
	return NewLineSensorPins(pins...)
}

// NewLineSensorPins wraps already resolved pins.
func NewLineSensorPins(pins ...gpio.PinIn) (*LineSensor, error) {
	if len(pins) == 0 || len(pins) > 8 {
		return nil, fmt.Errorf("line sensor: need 1-8 pins, got %d", len(pins))
	}
	for _, p := range pins {
		if err := p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("line sensor: %s as input: %w", p, err)
		}
	}
	return &LineSensor{pins: pins}, nil
}

// ReadMask samples every pin once.
func (s *LineSensor) ReadMask() (uint8, error) {
	var mask uint8
	for i, p := range s.pins {
		if p.Read() == gpio.High {
			mask |= 1 << i
		}
	}
	return mask, nil
}
