// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

const (
	// HalfT is half the integration step. The filter assumes it is stepped
	// at a fixed 100 Hz; callers must hold that rate.
	HalfT = 0.01

	// KpStartup converges quickly from the identity quaternion after power on.
	KpStartup = 10.5
	// KpSteady is used once the gyro bias has been committed.
	KpSteady = 0.5
	// Ki is the integral gain of the gyro-bias feedback.
	Ki = 0.001
)

// Estimator is a quaternion attitude filter that corrects gyro integration
// against the gravity direction measured by the accelerometer, with
// proportional-integral feedback on the cross-product error.
type Estimator struct {
	q          Quaternion
	exInt      float64
	eyInt      float64
	ezInt      float64
	kp         float64
	north      Vec3
	west       Vec3
	mag        Vec3
	angles     Angles
	correction bool
}

// NewEstimator returns an estimator at the identity attitude using the
// startup gain.
func NewEstimator() *Estimator {
	e := &Estimator{}
	e.Reset()
	return e
}

// Reset restores the identity quaternion, clears the integrators and
// restores the startup gain.
func (e *Estimator) Reset() {
	e.q = Identity
	e.ResetIntegral()
	e.kp = KpStartup
	e.north = Vec3{X: 1}
	e.west = Vec3{Y: 1}
	e.mag = Vec3{}
	e.angles = Angles{}
	e.correction = false
}

// ResetIntegral zeroes the integral error accumulators.
func (e *Estimator) ResetIntegral() {
	e.exInt, e.eyInt, e.ezInt = 0, 0, 0
}

// SetKp sets the proportional correction gain.
func (e *Estimator) SetKp(kp float64) { e.kp = kp }

// Kp returns the proportional correction gain.
func (e *Estimator) Kp() float64 { return e.kp }

// Integral returns the per-axis integral error accumulators.
func (e *Estimator) Integral() [3]float64 { return [3]float64{e.exInt, e.eyInt, e.ezInt} }

// Quaternion returns the current attitude quaternion.
func (e *Estimator) Quaternion() Quaternion { return e.q }

// Angles returns the angles computed by the last Step.
func (e *Estimator) Angles() Angles { return e.angles }

// North returns the estimated south-to-north reference axis in the body frame.
func (e *Estimator) North() Vec3 { return e.north }

// West returns the estimated east-to-west reference axis in the body frame.
func (e *Estimator) West() Vec3 { return e.west }

// Mag returns the last normalised magnetometer direction.
func (e *Estimator) Mag() Vec3 { return e.mag }

// Corrected reports whether the last Step applied accelerometer feedback.
func (e *Estimator) Corrected() bool { return e.correction }

// Step advances the filter by one fixed tick. gyro is in °/s, accel in any
// unit (only its direction is used) and mag is normalised and kept for
// heading consumers but not fused.
func (e *Estimator) Step(gyro, accel, mag [3]float64) Angles {
	gx := gyro[0] * degToRad
	gy := gyro[1] * degToRad
	gz := gyro[2] * degToRad

	q0, q1, q2, q3 := e.q.Q0, e.q.Q1, e.q.Q2, e.q.Q3

	norm := InvSqrt(accel[0]*accel[0] + accel[1]*accel[1] + accel[2]*accel[2])
	ax := accel[0] * norm
	ay := accel[1] * norm
	az := accel[2] * norm

	norm = InvSqrt(mag[0]*mag[0] + mag[1]*mag[1] + mag[2]*mag[2])
	e.mag = Vec3{X: mag[0] * norm, Y: mag[1] * norm, Z: mag[2] * norm}

	// estimated direction of gravity
	vx := 2 * (q1*q3 - q0*q2)
	vy := 2 * (q0*q1 + q2*q3)
	vz := q0*q0 - q1*q1 - q2*q2 + q3*q3

	e.north = Vec3{
		X: 1 - 2*(q3*q3+q2*q2),
		Y: 2 * (-q0*q3 + q1*q2),
		Z: 2 * (q0*q2 - q1*q3),
	}
	e.west = Vec3{
		X: 2 * (q0*q3 + q1*q2),
		Y: 1 - 2*(q3*q3+q1*q1),
		Z: 2 * (-q0*q1 + q2*q3),
	}

	ex := ay*vz - az*vy
	ey := az*vx - ax*vz
	ez := ax*vy - ay*vx

	// Exact comparison: a zero component (e.g. a zeroed accel reading or a
	// perfectly aligned attitude) skips feedback for this tick.
	e.correction = ex != 0 && ey != 0 && ez != 0
	if e.correction {
		e.exInt += ex * Ki * HalfT
		e.eyInt += ey * Ki * HalfT
		e.ezInt += ez * Ki * HalfT

		gx += e.kp*ex + e.exInt
		gy += e.kp*ey + e.eyInt
		gz += e.kp*ez + e.ezInt
	}

	t0 := q0 + (-q1*gx-q2*gy-q3*gz)*HalfT
	t1 := q1 + (q0*gx+q2*gz-q3*gy)*HalfT
	t2 := q2 + (q0*gy-q1*gz+q3*gx)*HalfT
	t3 := q3 + (q0*gz+q1*gy-q2*gx)*HalfT

	norm = InvSqrt(t0*t0 + t1*t1 + t2*t2 + t3*t3)
	e.q = Quaternion{Q0: t0 * norm, Q1: t1 * norm, Q2: t2 * norm, Q3: t3 * norm}

	e.angles = AnglesFrom(e.q)
	return e.angles
}

// AnglesFrom derives yaw, pitch and roll in degrees from q.
func AnglesFrom(q Quaternion) Angles {
	sinPitch := 2 * (q.Q0*q.Q2 - q.Q1*q.Q3)
	sinPitch = math.Max(-1, math.Min(1, sinPitch))

	return Angles{
		Yaw:   -math.Atan2(2*(q.Q1*q.Q2+q.Q0*q.Q3), 1-2*(q.Q2*q.Q2+q.Q3*q.Q3)) * radToDeg,
		Pitch: -math.Asin(sinPitch) * radToDeg,
		Roll:  math.Atan2(2*(q.Q2*q.Q3+q.Q0*q.Q1), 1-2*(q.Q1*q.Q1+q.Q2*q.Q2)) * radToDeg,
	}
}
