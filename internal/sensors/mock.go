package sensors

import (
	"log"
	"sync"

	"github.com/relabs-tech/line_follower/internal/motion"
)

// Segment is a run of identical line-sensor readings.
type Segment struct {
	Mask  uint8
	Ticks int
}

// MockTrack replays a scripted sequence of line-sensor masks, advancing one
// tick per ReadMask. The last mask is held once the script ends.
type MockTrack struct {
	mu       sync.Mutex
	segments []Segment
	seg      int
	tick     int
}

// NewMockTrack returns a track replaying segments in order.
func NewMockTrack(segments ...Segment) *MockTrack {
	return &MockTrack{segments: segments}
}

// CircuitTrack scripts one lap of the A-B-C-D circuit: the straights have
// no line under the sensor and the arcs are followed with the line
// wandering across the centre sensors.
func CircuitTrack(straightTicks, arcTicks int) *MockTrack {
	third := max(arcTicks/3, 1)
	arc := []Segment{
		{Mask: 0x04, Ticks: third},
		{Mask: 0x0C, Ticks: third},
		{Mask: 0x06, Ticks: third},
	}
	var segs []Segment
	segs = append(segs, Segment{Ticks: straightTicks})
	segs = append(segs, arc...)
	segs = append(segs, Segment{Ticks: straightTicks})
	segs = append(segs, arc...)
	segs = append(segs, Segment{Ticks: straightTicks})
	return NewMockTrack(segs...)
}

// ReadMask returns the current scripted mask and advances by one tick.
func (t *MockTrack) ReadMask() (uint8, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.segments) == 0 {
		return 0, nil
	}
	if t.seg >= len(t.segments) {
		return t.segments[len(t.segments)-1].Mask, nil
	}
	mask := t.segments[t.seg].Mask
	t.tick++
	if t.tick >= t.segments[t.seg].Ticks {
		t.seg++
		t.tick = 0
	}
	return mask, nil
}

// Done reports whether the script has been fully replayed.
func (t *MockTrack) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seg >= len(t.segments)
}

// MockMotors records the last command instead of driving hardware.
type MockMotors struct {
	mu    sync.Mutex
	last  motion.MotorCommand
	count int
}

// Drive stores cmd.
func (m *MockMotors) Drive(cmd motion.MotorCommand) error {
	m.mu.Lock()
	m.last = cmd
	m.count++
	m.mu.Unlock()
	return nil
}

// Last returns the most recent command and how many were applied.
func (m *MockMotors) Last() (motion.MotorCommand, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.count
}

// LogIndicator logs edges instead of switching outputs.
type LogIndicator struct {
	mu sync.Mutex
	on bool
}

// Set logs a transition.
func (l *LogIndicator) Set(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if on != l.on {
		log.Printf("indicator: %s", map[bool]string{true: "on", false: "off"}[on])
		l.on = on
	}
	return nil
}
