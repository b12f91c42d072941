package imu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleFactors(t *testing.T) {
	cases := []struct {
		raw   int16
		accel float64
		gyro  float64
	}{
		{0, 0, 0},
		{8192, 1000, 250},
		{-8192, -1000, -250},
		{32767, 32767 * 4 / 32.768, 32767 * 1000 / 32768.0},
		{-32768, -4000, -1000},
	}
	for _, c := range cases {
		assert.InDelta(t, c.accel, AccelMilliG(c.raw), 1e-9, "accel raw=%d", c.raw)
		assert.InDelta(t, c.gyro, GyroDPS(c.raw), 1e-9, "gyro raw=%d", c.raw)
	}
}

func TestScaled(t *testing.T) {
	s := IMURaw{Az: 8192, Gz: -32768, Mx: 12}.Scaled()
	assert.InDelta(t, 1000.0, s.Accel[2], 1e-9)
	assert.InDelta(t, -1000.0, s.Gyro[2], 1e-9)
	assert.Equal(t, 12.0, s.Mag[0])
	assert.Zero(t, s.Accel[0])
}
