package telemetry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/line_follower/internal/motion"
	"github.com/relabs-tech/line_follower/internal/orientation"
	"github.com/relabs-tech/line_follower/internal/pid"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	sent    []published
	err     error
	handler mqtt.MessageHandler
	topic   string
}

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{err: c.err}
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.topic = topic
	c.handler = cb
	return doneToken{err: c.err}
}

type fakeMessage struct{ payload []byte }

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return "vehicle/command" }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Command
		wantErr bool
	}{
		{"select mission", `{"cmd":"select_mission","mission":2}`, Command{Kind: SelectMission, Mission: 2}, false},
		{"set gains", `{"cmd":"set_gains","channel":1,"gains":{"kp":1.5,"ki":0,"kd":0.1}}`,
			Command{Kind: SetGains, Channel: motion.ChannelForward, Gains: pid.Gains[float64]{Kp: 1.5, Kd: 0.1}}, false},
		{"save gains", `{"cmd":"save_gains"}`, Command{Kind: SaveGains}, false},
		{"base speed", `{"cmd":"set_base_speed","speed":0.3}`, Command{Kind: SetBaseSpeed, Speed: 0.3}, false},
		{"reset yaw", `{"cmd":"reset_yaw"}`, Command{Kind: ResetYaw}, false},
		{"yaw ref", `{"cmd":"set_yaw_ref","yaw":-90}`, Command{Kind: SetYawRef, Yaw: -90}, false},
		{"unknown", `{"cmd":"launch"}`, Command{}, true},
		{"bad channel", `{"cmd":"set_gains","channel":3}`, Command{}, true},
		{"speed range", `{"cmd":"set_base_speed","speed":2}`, Command{}, true},
		{"not json", `mission 2`, Command{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnknownCommandIsTyped(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"cmd":"launch"}`))
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestPublisher(t *testing.T) {
	c := &fakeClient{}
	p := NewPublisher(c, "vehicle/attitude", "vehicle/motion")

	require.NoError(t, p.PublishAttitude(orientation.State{Angles: orientation.Angles{Yaw: 12.5}}))
	require.NoError(t, p.PublishMotion(motion.Status{Mission: 2, State: "Arc_BC"}))

	require.Len(t, c.sent, 2)
	assert.Equal(t, "vehicle/attitude", c.sent[0].topic)
	assert.True(t, c.sent[0].retained)

	var st motion.Status
	require.NoError(t, json.Unmarshal(c.sent[1].payload, &st))
	assert.Equal(t, "Arc_BC", st.State)

	c.err = errors.New("broker gone")
	assert.Error(t, p.PublishMotion(motion.Status{}))
}

func TestSubscribeDeliversAndDrops(t *testing.T) {
	c := &fakeClient{}
	out := make(chan Command, 1)
	require.NoError(t, Subscribe(c, "vehicle/command", out))
	require.NotNil(t, c.handler)
	assert.Equal(t, "vehicle/command", c.topic)

	c.handler(nil, fakeMessage{payload: []byte(`{"cmd":"garbage"}`)})
	assert.Empty(t, out)

	c.handler(nil, fakeMessage{payload: []byte(`{"cmd":"select_mission","mission":1}`)})
	c.handler(nil, fakeMessage{payload: []byte(`{"cmd":"reset_yaw"}`)}) // queue full

	require.Len(t, out, 1)
	assert.Equal(t, Command{Kind: SelectMission, Mission: 1}, <-out)
}

func TestSubscribeError(t *testing.T) {
	c := &fakeClient{err: errors.New("not authorized")}
	assert.Error(t, Subscribe(c, "vehicle/command", make(chan Command)))
}
