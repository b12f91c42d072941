// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"sync"

	imu_raw "github.com/relabs-tech/line_follower/internal/imu"
)

// oneG is 1 g expressed in raw accelerometer counts at ±4 g.
const oneG = 8192

type mockSource struct {
	mu      sync.Mutex
	n       int
	yawRate float64
	bias    [3]int16
	noise   int16
}

// MockOption configures a mock IMU source.
type MockOption func(*mockSource)

// WithYawRate makes the mock report a constant rotation about z in °/s.
func WithYawRate(dps float64) MockOption {
	return func(m *mockSource) { m.yawRate = dps }
}

// WithGyroBias adds a constant raw-count offset to each gyro axis.
func WithGyroBias(x, y, z int16) MockOption {
	return func(m *mockSource) { m.bias = [3]int16{x, y, z} }
}

// WithNoise adds a deterministic ±amplitude raw-count jitter to the gyro.
func WithNoise(amplitude int16) MockOption {
	return func(m *mockSource) { m.noise = amplitude }
}

// NewMockSource creates a mock IMU that sits level under gravity.
func NewMockSource(opts ...MockOption) imu_raw.SensorPort {
	m := &mockSource{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetYawRate changes the simulated rotation rate.
func SetYawRate(src imu_raw.SensorPort, dps float64) {
	if m, ok := src.(*mockSource); ok {
		m.mu.Lock()
		m.yawRate = dps
		m.mu.Unlock()
	}
}

func (m *mockSource) ReadRaw() (imu_raw.IMURaw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.n++
	var jitter int16
	if m.noise != 0 {
		// alternating pattern keeps the variance small and the mean exact
		if m.n%2 == 0 {
			jitter = m.noise
		} else {
			jitter = -m.noise
		}
	}

	gz := int16(math.Round(m.yawRate * 32768.0 / 1000))

	return imu_raw.IMURaw{
		Ax: 0,
		Ay: 0,
		Az: oneG,
		Gx: m.bias[0] + jitter,
		Gy: m.bias[1] + jitter,
		Gz: m.bias[2] + gz + jitter,
		Mx: 200,
		My: 0,
		Mz: -400,
	}, nil
}
