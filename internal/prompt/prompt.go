// Package prompt drives the buzzer/LED feedback pulse fired at waypoints.
package prompt

import (
	"log"
	"sync"
	"time"
)

// DefaultDuration is the length of one feedback pulse.
const DefaultDuration = 120 * time.Millisecond

// Indicator is the physical output behind a pulse.
type Indicator interface {
	Set(on bool) error
}

// Pulse is a retriggerable one-shot: Fire switches the indicator on and
// (re)arms the deadline at which it switches off again. Fire never blocks
// on the deadline.
type Pulse struct {
	out      Indicator
	duration time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	deadline time.Time
	active   bool
	fired    int
}

// New returns an idle pulse driving out. A non-positive duration selects
// DefaultDuration.
func New(out Indicator, d time.Duration) *Pulse {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Pulse{out: out, duration: d}
}

// Fire starts a pulse, or extends the one in progress.
func (p *Pulse) Fire() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fired++
	if !p.active {
		if err := p.out.Set(true); err != nil {
			log.Printf("prompt: indicator on: %v", err)
		}
		p.active = true
	}
	p.deadline = time.Now().Add(p.duration)
	if p.timer == nil {
		p.timer = time.AfterFunc(p.duration, p.expire)
		return
	}
	p.timer.Reset(p.duration)
}

func (p *Pulse) expire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	// a Fire that raced the timer has pushed the deadline out
	if left := time.Until(p.deadline); left > 0 {
		p.timer.Reset(left)
		return
	}
	p.off()
}

func (p *Pulse) off() {
	if !p.active {
		return
	}
	if err := p.out.Set(false); err != nil {
		log.Printf("prompt: indicator off: %v", err)
	}
	p.active = false
}

// Active reports whether the indicator is currently on.
func (p *Pulse) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Fired returns how many times Fire has been called.
func (p *Pulse) Fired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fired
}

// Stop cancels any pending pulse and switches the indicator off.
func (p *Pulse) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.deadline = time.Time{}
	p.off()
}
