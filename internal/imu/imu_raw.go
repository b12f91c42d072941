package imu

// Conversion factors for the configured full-scale ranges:
// ±4 g accelerometer, ±1000 °/s gyroscope.
const (
	accelFSRg    = 4
	accelDivisor = 32.768
	gyroFSRdps   = 1000
	gyroDivisor  = 32768.0
)

// IMURaw represents a single raw IMU+mag sample.
type IMURaw struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	Mx int16 `json:"mx"` // magnetometer
	My int16 `json:"my"`
	Mz int16 `json:"mz"`
}

// Sample is an IMURaw converted to physical units.
type Sample struct {
	Accel [3]float64 `json:"accel_mg"`
	Gyro  [3]float64 `json:"gyro_dps"`
	Mag   [3]float64 `json:"mag"`
}

// SensorPort is anything that can provide raw IMU samples.
type SensorPort interface {
	ReadRaw() (IMURaw, error)
}

// AccelMilliG converts a raw accelerometer count to milli-g.
func AccelMilliG(raw int16) float64 {
	return float64(int32(raw)*accelFSRg) / accelDivisor
}

// GyroDPS converts a raw gyroscope count to degrees per second.
func GyroDPS(raw int16) float64 {
	return float64(int32(raw)*gyroFSRdps) / gyroDivisor
}

// Scaled converts the sample to milli-g and °/s. Magnetometer counts are
// passed through unchanged; only their direction is ever used.
func (r IMURaw) Scaled() Sample {
	return Sample{
		Accel: [3]float64{AccelMilliG(r.Ax), AccelMilliG(r.Ay), AccelMilliG(r.Az)},
		Gyro:  [3]float64{GyroDPS(r.Gx), GyroDPS(r.Gy), GyroDPS(r.Gz)},
		Mag:   [3]float64{float64(r.Mx), float64(r.My), float64(r.Mz)},
	}
}
