// Package vehicle ties the attitude pipeline, the motion controller and the
// gain store together behind one handle.
//
// AttitudeTick belongs to the attitude goroutine. MotionTick, Apply,
// SelectMission and SetGains belong to the motion goroutine. The snapshot
// getters may be called from anywhere.
package vehicle

import (
	"fmt"
	"log"
	"sync"

	"github.com/relabs-tech/line_follower/internal/gains"
	imu_raw "github.com/relabs-tech/line_follower/internal/imu"
	"github.com/relabs-tech/line_follower/internal/motion"
	"github.com/relabs-tech/line_follower/internal/orientation"
	"github.com/relabs-tech/line_follower/internal/pid"
	"github.com/relabs-tech/line_follower/internal/telemetry"
)

// Core is the vehicle control core.
type Core struct {
	filter *orientation.Filter
	yaw    orientation.YawCell

	ctl     *motion.Controller
	store   *gains.Store
	mission int

	mu       sync.RWMutex
	attitude orientation.State
	status   motion.Status
}

// New builds a core. The store's cached gains are applied to the controller;
// load it first to use persisted gains.
func New(store *gains.Store, prompt motion.Prompter, opts ...motion.Option) *Core {
	c := &Core{
		filter: orientation.NewFilter(),
		ctl:    motion.New(prompt, opts...),
		store:  store,
	}
	if store != nil {
		store.Apply(c.ctl)
	}
	c.attitude = c.filter.State()
	c.status = c.ctl.Status()
	return c
}

// AttitudeTick runs one estimator step and publishes the new yaw.
func (c *Core) AttitudeTick(raw imu_raw.IMURaw) orientation.Angles {
	committed := c.filter.Calibrator().Committed()
	a := c.filter.Update(raw)
	c.yaw.Store(a.Yaw)
	if !committed && c.filter.Calibrator().Committed() {
		b := c.filter.Calibrator().Bias()
		log.Printf("vehicle: gyro bias committed (%.3f, %.3f, %.3f) °/s", b[0], b[1], b[2])
	}

	st := c.filter.State()
	c.mu.Lock()
	c.attitude = st
	c.mu.Unlock()
	return a
}

// MotionTick runs one motion step on the given line-sensor mask with the
// latest yaw.
func (c *Core) MotionTick(mask uint8) (motion.MotorCommand, bool) {
	prev := c.ctl.Status().State
	cmd, ok := c.ctl.Tick(c.mission, mask, c.yaw.Load())

	st := c.ctl.Status()
	if st.State != prev {
		log.Printf("vehicle: mission %d: %s -> %s", st.Mission, prev, st.State)
	}
	c.mu.Lock()
	c.status = st
	c.mu.Unlock()
	return cmd, ok
}

// SelectMission takes effect on the next MotionTick.
func (c *Core) SelectMission(id int) {
	c.mission = id
}

// Mission returns the selected mission id.
func (c *Core) Mission() int { return c.mission }

// SetGains retunes one loop and records the gains in the store's cache.
func (c *Core) SetGains(ch motion.Channel, g pid.Gains[float64]) error {
	if _, ok := c.ctl.Gains(ch); !ok {
		return fmt.Errorf("vehicle: unknown channel %d", ch)
	}
	c.ctl.TunePid(ch, g.Kp, g.Ki, g.Kd)
	if c.store != nil {
		return c.store.Set(ch, g)
	}
	return nil
}

// SaveGains persists the controller's current gains.
func (c *Core) SaveGains() error {
	if c.store == nil {
		return fmt.Errorf("vehicle: no gain store")
	}
	for _, ch := range []motion.Channel{motion.ChannelTurn, motion.ChannelForward} {
		g, _ := c.ctl.Gains(ch)
		if err := c.store.Set(ch, g); err != nil {
			return err
		}
	}
	return c.store.Save()
}

// Apply executes one command.
func (c *Core) Apply(cmd telemetry.Command) error {
	switch cmd.Kind {
	case telemetry.SelectMission:
		c.SelectMission(cmd.Mission)
	case telemetry.SetGains:
		return c.SetGains(cmd.Channel, cmd.Gains)
	case telemetry.SaveGains:
		return c.SaveGains()
	case telemetry.SetBaseSpeed:
		c.ctl.SetBaseSpeed(cmd.Speed)
	case telemetry.ResetYaw:
		c.ctl.ResetYawReference()
	case telemetry.SetYawRef:
		c.ctl.SetYawReference(cmd.Yaw)
	default:
		return fmt.Errorf("%w %q", telemetry.ErrUnknownCommand, cmd.Kind)
	}
	return nil
}

// Yaw returns the latest published yaw in degrees.
func (c *Core) Yaw() float64 { return c.yaw.Load() }

// Attitude returns the attitude snapshot after the last AttitudeTick.
func (c *Core) Attitude() orientation.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attitude
}

// Motion returns the motion snapshot after the last MotionTick.
func (c *Core) Motion() motion.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}
