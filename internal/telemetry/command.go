package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/relabs-tech/line_follower/internal/motion"
	"github.com/relabs-tech/line_follower/internal/pid"
)

// Kind names a vehicle command.
type Kind string

const (
	SelectMission Kind = "select_mission"
	SetGains      Kind = "set_gains"
	SaveGains     Kind = "save_gains"
	SetBaseSpeed  Kind = "set_base_speed"
	ResetYaw      Kind = "reset_yaw"
	SetYawRef     Kind = "set_yaw_ref"
)

var ErrUnknownCommand = errors.New("telemetry: unknown command")

// Command is one request to the vehicle. Only the fields its Kind needs are
// meaningful.
type Command struct {
	Kind    Kind               `json:"cmd"`
	Mission int                `json:"mission,omitempty"`
	Channel motion.Channel     `json:"channel,omitempty"`
	Gains   pid.Gains[float64] `json:"gains,omitzero"`
	Speed   float64            `json:"speed,omitempty"`
	Yaw     float64            `json:"yaw,omitempty"`
}

// DecodeCommand parses and validates a JSON command.
func DecodeCommand(payload []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(payload, &c); err != nil {
		return Command{}, fmt.Errorf("telemetry: decode command: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Command{}, err
	}
	return c, nil
}

// Validate rejects unknown kinds and out-of-range arguments.
func (c Command) Validate() error {
	switch c.Kind {
	case SelectMission, SaveGains, ResetYaw, SetYawRef:
		return nil
	case SetGains:
		if c.Channel != motion.ChannelTurn && c.Channel != motion.ChannelForward {
			return fmt.Errorf("telemetry: set_gains: unknown channel %d", c.Channel)
		}
		return nil
	case SetBaseSpeed:
		if c.Speed < -1 || c.Speed > 1 {
			return fmt.Errorf("telemetry: set_base_speed: %g outside [-1, 1]", c.Speed)
		}
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownCommand, c.Kind)
}
