package orientation

import (
	"math"
	"sync/atomic"
)

// YawCell carries the latest yaw from the attitude goroutine to the motion
// goroutine without tearing. One writer, one reader.
type YawCell struct {
	bits atomic.Uint64
}

// Store publishes yaw in degrees.
func (c *YawCell) Store(deg float64) { c.bits.Store(math.Float64bits(deg)) }

// Load returns the last published yaw, 0 before the first Store.
func (c *YawCell) Load() float64 { return math.Float64frombits(c.bits.Load()) }
