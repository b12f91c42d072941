package prompt

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	states []bool
	err    error
}

func (r *recorder) Set(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, on)
	return r.err
}

func (r *recorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.states...)
}

func TestPulseAutoClears(t *testing.T) {
	out := &recorder{}
	p := New(out, 20*time.Millisecond)

	p.Fire()
	assert.True(t, p.Active())
	require.Eventually(t, func() bool { return !p.Active() }, time.Second, 2*time.Millisecond)
	assert.Equal(t, []bool{true, false}, out.snapshot())
}

func TestPulseRetriggerExtends(t *testing.T) {
	out := &recorder{}
	p := New(out, 60*time.Millisecond)

	start := time.Now()
	p.Fire()
	time.Sleep(40 * time.Millisecond)
	p.Fire()
	require.Eventually(t, func() bool { return !p.Active() }, time.Second, 2*time.Millisecond)

	assert.GreaterOrEqual(t, time.Since(start), 95*time.Millisecond)
	assert.Equal(t, []bool{true, false}, out.snapshot(), "retrigger does not toggle the output")
	assert.Equal(t, 2, p.Fired())
}

func TestPulseStop(t *testing.T) {
	out := &recorder{}
	p := New(out, time.Hour)
	p.Fire()
	p.Stop()
	assert.False(t, p.Active())
	assert.Equal(t, []bool{true, false}, out.snapshot())

	p.Stop()
	assert.Len(t, out.snapshot(), 2)
}

func TestPulseIndicatorErrorsAreNotFatal(t *testing.T) {
	out := &recorder{err: errors.New("gpio busy")}
	p := New(out, 0)
	assert.Equal(t, DefaultDuration, p.duration)
	p.Fire()
	assert.True(t, p.Active())
	p.Stop()
	assert.False(t, p.Active())
}
