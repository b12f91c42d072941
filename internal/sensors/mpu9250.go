// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/line_follower/internal/config"
	imu_raw "github.com/relabs-tech/line_follower/internal/imu"
)

// Range selectors the scale factors in internal/imu are fixed to.
const (
	accelRange4g     = 1
	gyroRange1000dps = 2
)

var (
	accelRangeG  = []int{2, 4, 8, 16}
	gyroRangeDPS = []int{250, 500, 1000, 2000}
)

type imuSource struct {
	imu *mpu9250.MPU9250
}

// NewMPU9250 initializes the MPU9250 over SPI using the configured device,
// chip select and full-scale ranges.
func NewMPU9250(cfg *config.Config) (imu_raw.SensorPort, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.IMUCSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", cfg.IMUCSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.IMUSPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", cfg.IMUSPIDevice, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	if err := dev.SetAccelRange(cfg.IMUAccelRange); err != nil {
		return nil, fmt.Errorf("IMU: set accel range: %w", err)
	}
	log.Printf("IMU: accelerometer range set to %d (±%dg)", cfg.IMUAccelRange, accelRangeG[cfg.IMUAccelRange])

	if err := dev.SetGyroRange(cfg.IMUGyroRange); err != nil {
		return nil, fmt.Errorf("IMU: set gyro range: %w", err)
	}
	log.Printf("IMU: gyroscope range set to %d (±%d°/s)", cfg.IMUGyroRange, gyroRangeDPS[cfg.IMUGyroRange])

	if cfg.IMUAccelRange != accelRange4g || cfg.IMUGyroRange != gyroRange1000dps {
		log.Printf("IMU: WARNING: ranges differ from ±4g/±1000°/s, attitude will be mis-scaled")
	}

	return &imuSource{imu: dev}, nil
}

// ReadRaw reads accelerometer and gyroscope data. The MPU9250 driver does
// not expose the AK8963, so the magnetometer fields stay zero.
func (s *imuSource) ReadRaw() (imu_raw.IMURaw, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu_raw.IMURaw{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu_raw.IMURaw{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu_raw.IMURaw{}, fmt.Errorf("IMU accel Z: %w", err)
	}

	gx, err := s.imu.GetRotationX()
	if err != nil {
		return imu_raw.IMURaw{}, fmt.Errorf("IMU gyro X: %w", err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return imu_raw.IMURaw{}, fmt.Errorf("IMU gyro Y: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return imu_raw.IMURaw{}, fmt.Errorf("IMU gyro Z: %w", err)
	}

	return imu_raw.IMURaw{
		Ax: ax,
		Ay: ay,
		Az: az,
		Gx: gx,
		Gy: gy,
		Gz: gz,
	}, nil
}
