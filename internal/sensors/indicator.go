package sensors

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Indicator drives the buzzer (active high) and the LED (active low)
// together. Either output may be absent.
type Indicator struct {
	buzzer gpio.PinOut
	led    gpio.PinOut
}

// NewIndicator resolves the named outputs; an empty name skips that output.
func NewIndicator(buzzerPin, ledPin string) (*Indicator, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("indicator: periph host init: %w", err)
	}
	var ind Indicator
	if buzzerPin != "" {
		if ind.buzzer = gpioreg.ByName(buzzerPin); ind.buzzer == nil {
			return nil, fmt.Errorf("indicator: buzzer pin %q not found", buzzerPin)
		}
	}
	if ledPin != "" {
		if ind.led = gpioreg.ByName(ledPin); ind.led == nil {
			return nil, fmt.Errorf("indicator: LED pin %q not found", ledPin)
		}
	}
	if err := ind.Set(false); err != nil {
		return nil, err
	}
	return &ind, nil
}

// NewIndicatorPins wraps already resolved pins; either may be nil.
func NewIndicatorPins(buzzer, led gpio.PinOut) *Indicator {
	return &Indicator{buzzer: buzzer, led: led}
}

// Set switches both outputs on or off.
func (i *Indicator) Set(on bool) error {
	var errs []error
	if i.buzzer != nil {
		if err := i.buzzer.Out(gpio.Level(on)); err != nil {
			errs = append(errs, fmt.Errorf("indicator: buzzer: %w", err))
		}
	}
	if i.led != nil {
		if err := i.led.Out(gpio.Level(!on)); err != nil {
			errs = append(errs, fmt.Errorf("indicator: LED: %w", err))
		}
	}
	return errors.Join(errs...)
}
