// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// Angles is the canonical attitude representation, in degrees.
// Yaw is in roughly [-180, 180) and is not wrapped to [0, 360).
type Angles struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// Vec3 is a 3-component vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is a unit-norm orientation quaternion, Q0 being the scalar part.
type Quaternion struct {
	Q0 float64 `json:"q0"`
	Q1 float64 `json:"q1"`
	Q2 float64 `json:"q2"`
	Q3 float64 `json:"q3"`
}

// Identity is the zero-rotation quaternion.
var Identity = Quaternion{Q0: 1}

// Norm returns the euclidean norm of q.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.Q0*q.Q0 + q.Q1*q.Q1 + q.Q2*q.Q2 + q.Q3*q.Q3)
}

// InvSqrt returns 1/sqrt(x), or 0 for x <= 0 so that a degenerate vector
// normalises to zero instead of NaN.
func InvSqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return 1 / math.Sqrt(x)
}

// State is a snapshot of the attitude pipeline, published as telemetry.
type State struct {
	Angles
	Quaternion    Quaternion `json:"quaternion"`
	North         Vec3       `json:"north"`
	West          Vec3       `json:"west"`
	GyroBias      [3]float64 `json:"gyro_bias"`
	BiasCommitted bool       `json:"bias_committed"`
	Kp            float64    `json:"kp"`
}
