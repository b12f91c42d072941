package orientation

import (
	imu_raw "github.com/relabs-tech/line_follower/internal/imu"
)

// Filter is the attitude-sampling pipeline: scale the raw sample, update
// the bias calibrator, subtract the bias and step the estimator.
// It must be driven at 100 Hz from a single goroutine.
type Filter struct {
	cal *GyroBiasCalibrator
	est *Estimator
}

// NewFilter returns a filter in its power-on state.
func NewFilter() *Filter {
	return &Filter{
		cal: NewGyroBiasCalibrator(),
		est: NewEstimator(),
	}
}

// Update processes one raw sample and returns the new attitude.
func (f *Filter) Update(raw imu_raw.IMURaw) Angles {
	s := raw.Scaled()
	return f.UpdateScaled(s.Gyro, s.Accel, s.Mag)
}

// UpdateScaled is Update for samples already in °/s and milli-g.
func (f *Filter) UpdateScaled(gyro, accel, mag [3]float64) Angles {
	if f.cal.Update(gyro) {
		f.est.ResetIntegral()
		f.est.SetKp(KpSteady)
	}
	return f.est.Step(f.cal.Corrected(gyro), accel, mag)
}

// Calibrator exposes the gyro bias calibrator.
func (f *Filter) Calibrator() *GyroBiasCalibrator { return f.cal }

// Estimator exposes the attitude estimator.
func (f *Filter) Estimator() *Estimator { return f.est }

// State returns a snapshot for telemetry.
func (f *Filter) State() State {
	return State{
		Angles:        f.est.Angles(),
		Quaternion:    f.est.Quaternion(),
		North:         f.est.North(),
		West:          f.est.West(),
		GyroBias:      f.cal.Bias(),
		BiasCommitted: f.cal.Committed(),
		Kp:            f.est.Kp(),
	}
}
