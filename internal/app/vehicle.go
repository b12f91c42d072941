// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/line_follower/internal/config"
	"github.com/relabs-tech/line_follower/internal/gains"
	imu_raw "github.com/relabs-tech/line_follower/internal/imu"
	"github.com/relabs-tech/line_follower/internal/motion"
	"github.com/relabs-tech/line_follower/internal/orientation"
	"github.com/relabs-tech/line_follower/internal/prompt"
	"github.com/relabs-tech/line_follower/internal/sensors"
	"github.com/relabs-tech/line_follower/internal/telemetry"
	"github.com/relabs-tech/line_follower/internal/vehicle"
)

// ports are the vehicle's hardware boundaries.
type ports struct {
	imu       imu_raw.SensorPort
	line      sensors.LineReader
	motors    sensors.Motors
	indicator prompt.Indicator
}

func openPorts(cfg *config.Config) (ports, error) {
	if cfg.UseMock {
		log.Println("vehicle: using mock sensors and actuators")
		return ports{
			imu:       orientation.NewMockSource(orientation.WithGyroBias(20, -12, 35), orientation.WithNoise(1)),
			line:      sensors.CircuitTrack(300, 600),
			motors:    &sensors.MockMotors{},
			indicator: &sensors.LogIndicator{},
		}, nil
	}

	src, err := sensors.NewMPU9250(cfg)
	if err != nil {
		return ports{}, err
	}
	line, err := sensors.NewLineSensor(cfg.LineSensorPins)
	if err != nil {
		return ports{}, err
	}
	motors, err := sensors.NewMotorDriver(cfg)
	if err != nil {
		return ports{}, err
	}
	ind, err := sensors.NewIndicator(cfg.BuzzerPin, cfg.LEDPin)
	if err != nil {
		return ports{}, err
	}
	return ports{imu: src, line: line, motors: motors, indicator: ind}, nil
}

// statePublisher is implemented by *telemetry.Publisher.
type statePublisher interface {
	PublishAttitude(orientation.State) error
	PublishMotion(motion.Status) error
}

// loops runs the three vehicle contexts.
type loops struct {
	core     *vehicle.Core
	p        ports
	pub      statePublisher
	commands <-chan telemetry.Command

	attitudeEvery  time.Duration
	motionEvery    time.Duration
	telemetryEvery time.Duration
}

// run blocks until ctx is cancelled or a loop fails, then zeroes the motors.
func (l *loops) run(parent context.Context) error {
	g, ctx := errgroup.WithContext(parent)
	g.Go(func() error { return l.attitude(ctx) })
	g.Go(func() error { return l.motion(ctx) })
	g.Go(func() error { return l.telemetry(ctx) })
	err := g.Wait()

	if stopErr := l.p.motors.Drive(motion.Stop); stopErr != nil {
		log.Printf("vehicle: stopping motors: %v", stopErr)
	}
	if parent.Err() != nil && errors.Is(err, parent.Err()) {
		return nil
	}
	return err
}

func (l *loops) attitude(ctx context.Context) error {
	ticker := time.NewTicker(l.attitudeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		raw, err := l.p.imu.ReadRaw()
		if err != nil {
			log.Printf("vehicle: IMU read error: %v", err)
			continue
		}
		l.core.AttitudeTick(raw)
	}
}

func (l *loops) motion(ctx context.Context) error {
	ticker := time.NewTicker(l.motionEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		l.drainCommands()

		mask, err := l.p.line.ReadMask()
		if err != nil {
			log.Printf("vehicle: line sensor read error: %v", err)
			continue
		}
		cmd, ok := l.core.MotionTick(mask)
		if !ok {
			continue
		}
		if err := l.p.motors.Drive(cmd); err != nil {
			log.Printf("vehicle: motor write error: %v", err)
		}
	}
}

func (l *loops) drainCommands() {
	for {
		select {
		case cmd := <-l.commands:
			if err := l.core.Apply(cmd); err != nil {
				log.Printf("vehicle: command %s: %v", cmd.Kind, err)
			} else {
				log.Printf("vehicle: applied %s", cmd.Kind)
			}
		default:
			return
		}
	}
}

func (l *loops) telemetry(ctx context.Context) error {
	ticker := time.NewTicker(l.telemetryEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := l.pub.PublishAttitude(l.core.Attitude()); err != nil {
			log.Printf("vehicle: %v", err)
		}
		if err := l.pub.PublishMotion(l.core.Motion()); err != nil {
			log.Printf("vehicle: %v", err)
		}
	}
}

// loadGains opens the gain store at path. When no valid record is found the
// defaults are written back so the next boot reads a valid record.
func loadGains(path string) *gains.Store {
	store := gains.NewStore(path)
	_, ok, err := store.Load()
	switch {
	case err != nil:
		log.Printf("vehicle: loading gains from %s: %v (using defaults)", path, err)
	case ok:
		log.Printf("vehicle: loaded gains from %s", path)
	default:
		log.Printf("vehicle: no valid gains in %s, writing defaults", path)
		if err := store.Save(); err != nil {
			log.Printf("vehicle: saving default gains: %v", err)
		}
	}
	return store
}

// RunVehicle runs the control core until SIGINT or SIGTERM.
func RunVehicle() error {
	cfg := config.Get()

	p, err := openPorts(cfg)
	if err != nil {
		return fmt.Errorf("open ports: %w", err)
	}

	store := loadGains(cfg.GainsFile)

	pulse := prompt.New(p.indicator, cfg.PromptDuration())
	defer pulse.Stop()

	core := vehicle.New(store, pulse, motion.WithCruiseSpeed(cfg.CruiseSpeed))

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDVehicle)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("vehicle: connected to MQTT broker at %s", cfg.MQTTBroker)

	commands := make(chan telemetry.Command, 16)
	if err := telemetry.Subscribe(client, cfg.TopicCommand, commands); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := &loops{
		core:           core,
		p:              p,
		pub:            telemetry.NewPublisher(client, cfg.TopicAttitude, cfg.TopicMotion),
		commands:       commands,
		attitudeEvery:  cfg.AttitudeInterval(),
		motionEvery:    cfg.MotionInterval(),
		telemetryEvery: cfg.TelemetryInterval(),
	}
	err = l.run(ctx)
	log.Println("vehicle: shutting down")
	return err
}
