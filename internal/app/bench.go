// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"

	"github.com/relabs-tech/line_follower/internal/motion"
	"github.com/relabs-tech/line_follower/internal/orientation"
	"github.com/relabs-tech/line_follower/internal/sensors"
	"github.com/relabs-tech/line_follower/internal/vehicle"
)

// BenchResult summarises one bench run.
type BenchResult struct {
	Ticks   int
	Prompts int
	Final   motion.Status
}

// RunBench drives a core through the scripted circuit as fast as possible,
// with two motion ticks per attitude tick, and prints every state change
// to out.
func RunBench(out io.Writer, mission int, cruise float64) (BenchResult, error) {
	var prompts int
	core := vehicle.New(nil, motion.PrompterFunc(func() { prompts++ }), motion.WithCruiseSpeed(cruise))
	core.SelectMission(mission)

	src := orientation.NewMockSource(orientation.WithGyroBias(20, -12, 35), orientation.WithNoise(1))
	track := sensors.CircuitTrack(300, 600)
	motors := &sensors.MockMotors{}

	var (
		res   BenchResult
		state string
	)
	for tick := 0; !track.Done(); tick++ {
		if tick%2 == 0 {
			raw, err := src.ReadRaw()
			if err != nil {
				return res, err
			}
			core.AttitudeTick(raw)
		}
		mask, err := track.ReadMask()
		if err != nil {
			return res, err
		}
		cmd, ok := core.MotionTick(mask)
		if ok {
			if err := motors.Drive(cmd); err != nil {
				return res, err
			}
		}

		st := core.Motion()
		if st.State != state {
			fmt.Fprintf(out, "%6d  mask=%05b  yaw=%7.2f  %-13s -> %-13s  L=%+.3f R=%+.3f\n",
				tick, mask, core.Yaw(), state, st.State, cmd.Left, cmd.Right)
			state = st.State
		}
		res.Ticks = tick + 1
	}

	res.Prompts = prompts
	res.Final = core.Motion()
	fmt.Fprintf(out, "ticks=%d prompts=%d final=%s\n", res.Ticks, res.Prompts, res.Final.State)
	return res, nil
}
