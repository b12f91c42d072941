package sensors

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/line_follower/internal/config"
	"github.com/relabs-tech/line_follower/internal/motion"
)

// Motors applies a command to the drive motors.
type Motors interface {
	Drive(cmd motion.MotorCommand) error
}

// HBridge is one motor on a two-channel H-bridge driven in slow decay.
type HBridge struct {
	A, B     gpio.PinOut
	Reversed bool
}

// MotorDriver drives both motors with PWM at a fixed carrier frequency.
type MotorDriver struct {
	left, right HBridge
	fullScale   uint32
	freq        physic.Frequency
}

// NewMotorDriver resolves the configured motor pins.
func NewMotorDriver(cfg *config.Config) (*MotorDriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("motors: periph host init: %w", err)
	}
	left, err := lookupBridge(cfg.MotorLeftPins)
	if err != nil {
		return nil, fmt.Errorf("motors: left: %w", err)
	}
	right, err := lookupBridge(cfg.MotorRightPins)
	if err != nil {
		return nil, fmt.Errorf("motors: right: %w", err)
	}
	right.Reversed = cfg.MotorRightReversed
	return NewMotorDriverPins(left, right, cfg.PWMFullScale, physic.Frequency(cfg.PWMFrequencyHz)*physic.Hertz), nil
}

// NewMotorDriverPins wraps already resolved bridges.
func NewMotorDriverPins(left, right HBridge, fullScale uint32, freq physic.Frequency) *MotorDriver {
	return &MotorDriver{left: left, right: right, fullScale: fullScale, freq: freq}
}

func lookupBridge(names []string) (HBridge, error) {
	if len(names) != 2 {
		return HBridge{}, fmt.Errorf("need 2 pins, got %d", len(names))
	}
	a := gpioreg.ByName(names[0])
	if a == nil {
		return HBridge{}, fmt.Errorf("pin %q not found", names[0])
	}
	b := gpioreg.ByName(names[1])
	if b == nil {
		return HBridge{}, fmt.Errorf("pin %q not found", names[1])
	}
	return HBridge{A: a, B: b}, nil
}

// Drive sets both motors. Both are attempted even if the first fails.
func (d *MotorDriver) Drive(cmd motion.MotorCommand) error {
	return errors.Join(
		d.set(d.left, cmd.Left),
		d.set(d.right, cmd.Right),
	)
}

// Stop brakes both motors.
func (d *MotorDriver) Stop() error {
	return d.Drive(motion.Stop)
}

func (d *MotorDriver) set(m HBridge, speed float64) error {
	chA, chB := motion.SlowDecay(speed, d.fullScale)
	if m.Reversed {
		chA, chB = chB, chA
	}
	if err := m.A.PWM(d.duty(chA), d.freq); err != nil {
		return fmt.Errorf("motors: %s: %w", m.A, err)
	}
	if err := m.B.PWM(d.duty(chB), d.freq); err != nil {
		return fmt.Errorf("motors: %s: %w", m.B, err)
	}
	return nil
}

// duty maps a compare value in [0, fullScale] onto [0, gpio.DutyMax].
func (d *MotorDriver) duty(v uint32) gpio.Duty {
	if d.fullScale == 0 {
		return 0
	}
	return gpio.Duty(uint64(v) * uint64(gpio.DutyMax) / uint64(d.fullScale))
}
