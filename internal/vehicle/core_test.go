package vehicle

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/line_follower/internal/gains"
	"github.com/relabs-tech/line_follower/internal/motion"
	"github.com/relabs-tech/line_follower/internal/orientation"
	"github.com/relabs-tech/line_follower/internal/pid"
	"github.com/relabs-tech/line_follower/internal/sensors"
	"github.com/relabs-tech/line_follower/internal/telemetry"
)

type counter struct{ n int }

func (c *counter) Fire() { c.n++ }

func newCore(t *testing.T) (*Core, *counter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pid_gains.json")
	store := gains.NewStore(path)
	_, _, err := store.Load()
	require.NoError(t, err)
	p := &counter{}
	return New(store, p), p, path
}

func TestAttitudeTickPublishesYaw(t *testing.T) {
	core, _, _ := newCore(t)
	src := orientation.NewMockSource()

	for i := 0; i < orientation.WindowSize; i++ {
		raw, err := src.ReadRaw()
		require.NoError(t, err)
		core.AttitudeTick(raw)
	}
	require.True(t, core.Attitude().BiasCommitted)

	orientation.SetYawRate(src, 20)
	for i := 0; i < 50; i++ {
		raw, _ := src.ReadRaw()
		core.AttitudeTick(raw)
	}
	// 50 steps of 2*HalfT at 20 °/s; yaw is reported negated
	assert.InDelta(t, -20, core.Yaw(), 0.5)
	assert.InDelta(t, core.Yaw(), core.Attitude().Yaw, 1e-9)
}

func TestCircuitLap(t *testing.T) {
	core, prompts, _ := newCore(t)
	track := sensors.CircuitTrack(50, 90)
	motors := &sensors.MockMotors{}

	require.NoError(t, core.Apply(telemetry.Command{Kind: telemetry.SelectMission, Mission: motion.MissionCircuit}))

	var states []string
	for !track.Done() {
		mask, err := track.ReadMask()
		require.NoError(t, err)
		cmd, ok := core.MotionTick(mask)
		if ok {
			require.NoError(t, motors.Drive(cmd))
		}
		st := core.Motion().State
		if len(states) == 0 || states[len(states)-1] != st {
			states = append(states, st)
		}
	}

	assert.Equal(t, []string{"Straight_AB", "Arc_BC", "Straight_CD", "Arc_DA", "Done"}, states)
	assert.Equal(t, 5, prompts.n)
	last, _ := motors.Last()
	assert.Equal(t, motion.Stop, last)
}

func TestStraightMission(t *testing.T) {
	core, prompts, _ := newCore(t)
	core.SelectMission(motion.MissionStraight)

	masks := []uint8{0, 0, 0, 0x04, 0x04}
	var last motion.MotorCommand
	for _, m := range masks {
		last, _ = core.MotionTick(m)
	}
	assert.Equal(t, "StopAtB", core.Motion().State)
	assert.Equal(t, motion.Stop, last)
	assert.Equal(t, 1, prompts.n)
}

func TestApplyGainsAndSave(t *testing.T) {
	core, _, path := newCore(t)

	g := pid.Gains[float64]{Kp: 0.4, Ki: 0.01, Kd: 0.6}
	require.NoError(t, core.Apply(telemetry.Command{Kind: telemetry.SetGains, Channel: motion.ChannelTurn, Gains: g}))
	got, _ := core.ctl.Gains(motion.ChannelTurn)
	assert.Equal(t, g, got)

	require.NoError(t, core.Apply(telemetry.Command{Kind: telemetry.SaveGains}))

	reloaded := gains.NewStore(path)
	rec, ok, err := reloaded.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, g, rec.Gains[motion.ChannelTurn])

	// a fresh core picks the persisted gains up
	next := New(reloaded, nil)
	got, _ = next.ctl.Gains(motion.ChannelTurn)
	assert.Equal(t, g, got)
	require.NoError(t, next.SetGains(motion.ChannelForward, motion.DefaultForwardGains))
	assert.Error(t, next.SetGains(motion.Channel(7), g))
}

func TestApplyMotionCommands(t *testing.T) {
	core, _, _ := newCore(t)

	require.NoError(t, core.Apply(telemetry.Command{Kind: telemetry.SetBaseSpeed, Speed: 0.3}))
	assert.NoError(t, core.Apply(telemetry.Command{Kind: telemetry.SetYawRef, Yaw: 45}))
	assert.NoError(t, core.Apply(telemetry.Command{Kind: telemetry.ResetYaw}))
	assert.ErrorIs(t, core.Apply(telemetry.Command{Kind: "warp"}), telemetry.ErrUnknownCommand)

	core.SelectMission(99)
	_, ok := core.MotionTick(0x04)
	assert.False(t, ok)
	assert.Equal(t, "Disabled", core.Motion().State)
}

func TestSaveWithoutStore(t *testing.T) {
	core := New(nil, nil)
	assert.Error(t, core.SaveGains())
	assert.NoError(t, core.SetGains(motion.ChannelTurn, motion.DefaultTurnGains))
}
