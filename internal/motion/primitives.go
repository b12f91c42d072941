package motion

import (
	"errors"
	"math"
)

// ErrNoLine is returned by PositionError when no sensor sees the line.
var ErrNoLine = errors.New("motion: no line detected")

// SensorBits is the number of line-sensor positions.
const SensorBits = 5

// sensorMask selects the valid bits of a line-sensor reading.
const sensorMask = 1<<SensorBits - 1

// positionWeights are the lateral weights of sensor bits 0..4, left to right.
var positionWeights = [SensorBits]float64{-5, 2, 0, 2, 5}

// LinePresent reports whether any sensor sees the line.
func LinePresent(mask uint8) bool {
	return mask&sensorMask != 0
}

// PositionError returns the mean weight of the active sensors.
func PositionError(mask uint8) (float64, error) {
	var sum float64
	count := 0
	for bit := 0; bit < SensorBits; bit++ {
		if mask&(1<<bit) != 0 {
			sum += positionWeights[bit]
			count++
		}
	}
	if count == 0 {
		return 0, ErrNoLine
	}
	return sum / float64(count), nil
}

// WrapAngle normalises deg to [-180, 180). Non-finite input yields 0.
func WrapAngle(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	for deg >= 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}

// MotorCommand is a pair of normalised wheel speeds in [-1, 1].
type MotorCommand struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Stop is the all-zero command.
var Stop = MotorCommand{}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// Mix combines a base speed with the line-follow and heading-hold
// corrections: diff = turnAdjust - yawAdjust, left = base - diff,
// right = base + diff.
func Mix(base, turnAdjust, yawAdjust float64) MotorCommand {
	diff := turnAdjust - yawAdjust
	return MotorCommand{
		Left:  clampUnit(base - diff),
		Right: clampUnit(base + diff),
	}
}

// SlowDecay converts a normalised speed to the two compare values of a
// slow-decay H-bridge drive. The active channel is held at fullScale and
// the other is modulated at (1-|speed|)*fullScale; negative speeds swap the
// channel roles.
func SlowDecay(speed float64, fullScale uint32) (chA, chB uint32) {
	speed = clampUnit(speed)
	full := float64(fullScale)
	if speed >= 0 {
		return fullScale, uint32(math.Round((1 - speed) * full))
	}
	return uint32(math.Round((1 + speed) * full)), fullScale
}
