package sensors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/line_follower/internal/motion"
)

func TestLineSensorMask(t *testing.T) {
	pins := []*gpiotest.Pin{
		{N: "S0", L: gpio.Low},
		{N: "S1", L: gpio.High},
		{N: "S2", L: gpio.High},
		{N: "S3", L: gpio.Low},
		{N: "S4", L: gpio.High},
	}
	in := make([]gpio.PinIn, len(pins))
	for i, p := range pins {
		in[i] = p
	}
	s, err := NewLineSensorPins(in...)
	require.NoError(t, err)

	mask, err := s.ReadMask()
	require.NoError(t, err)
	assert.Equal(t, uint8(0b10110), mask)
}

func TestLineSensorRejectsNoPins(t *testing.T) {
	_, err := NewLineSensorPins()
	assert.Error(t, err)
}

func TestMotorDriverSlowDecay(t *testing.T) {
	la, lb := &gpiotest.Pin{N: "LA"}, &gpiotest.Pin{N: "LB"}
	ra, rb := &gpiotest.Pin{N: "RA"}, &gpiotest.Pin{N: "RB"}
	freq := 20 * physic.KiloHertz
	d := NewMotorDriverPins(
		HBridge{A: la, B: lb},
		HBridge{A: ra, B: rb, Reversed: true},
		11999, freq,
	)

	require.NoError(t, d.Drive(motion.MotorCommand{Left: 0.5, Right: 0.5}))

	assert.Equal(t, gpio.DutyMax, la.D)
	assert.InDelta(t, float64(gpio.DutyMax)/2, float64(lb.D), float64(gpio.DutyMax)/1000)
	assert.Equal(t, freq, la.F)
	// reversed: channel roles swapped
	assert.Equal(t, gpio.DutyMax, rb.D)
	assert.InDelta(t, float64(gpio.DutyMax)/2, float64(ra.D), float64(gpio.DutyMax)/1000)

	require.NoError(t, d.Stop())
	assert.Equal(t, gpio.DutyMax, la.D)
	assert.Equal(t, gpio.DutyMax, lb.D)
	assert.Equal(t, gpio.DutyMax, ra.D)
	assert.Equal(t, gpio.DutyMax, rb.D)
}

func TestIndicatorPolarity(t *testing.T) {
	buzzer, led := &gpiotest.Pin{N: "BUZ"}, &gpiotest.Pin{N: "LED"}
	ind := NewIndicatorPins(buzzer, led)

	require.NoError(t, ind.Set(true))
	assert.Equal(t, gpio.High, buzzer.L)
	assert.Equal(t, gpio.Low, led.L)

	require.NoError(t, ind.Set(false))
	assert.Equal(t, gpio.Low, buzzer.L)
	assert.Equal(t, gpio.High, led.L)

	assert.NoError(t, NewIndicatorPins(nil, nil).Set(true))
}

func TestMockTrack(t *testing.T) {
	tr := NewMockTrack(Segment{Mask: 0, Ticks: 2}, Segment{Mask: 0x04, Ticks: 1})
	var got []uint8
	for range 5 {
		m, err := tr.ReadMask()
		require.NoError(t, err)
		got = append(got, m)
	}
	assert.Equal(t, []uint8{0, 0, 0x04, 0x04, 0x04}, got)
	assert.True(t, tr.Done())
}

func TestMockMotors(t *testing.T) {
	var m MockMotors
	require.NoError(t, m.Drive(motion.MotorCommand{Left: 0.2, Right: -0.1}))
	last, n := m.Last()
	assert.Equal(t, motion.MotorCommand{Left: 0.2, Right: -0.1}, last)
	assert.Equal(t, 1, n)
}
