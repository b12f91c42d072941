// Package telemetry bridges the vehicle core to MQTT: it publishes attitude
// and motion snapshots and turns messages on the command topic into
// Commands.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/line_follower/internal/motion"
	"github.com/relabs-tech/line_follower/internal/orientation"
)

// Connect opens an MQTT connection.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// PublishClient is the part of mqtt.Client the publisher needs.
type PublishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher sends JSON snapshots to the attitude and motion topics.
type Publisher struct {
	client        PublishClient
	attitudeTopic string
	motionTopic   string
}

func NewPublisher(client PublishClient, attitudeTopic, motionTopic string) *Publisher {
	return &Publisher{client: client, attitudeTopic: attitudeTopic, motionTopic: motionTopic}
}

// PublishAttitude sends an attitude snapshot.
func (p *Publisher) PublishAttitude(st orientation.State) error {
	return p.publish(p.attitudeTopic, st)
}

// PublishMotion sends a motion snapshot.
func (p *Publisher) PublishMotion(st motion.Status) error {
	return p.publish(p.motionTopic, st)
}

func (p *Publisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal error (%s): %w", topic, err)
	}
	if token := p.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", topic, token.Error())
	}
	return nil
}

// SubscribeClient is the part of mqtt.Client Subscribe needs.
type SubscribeClient interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Subscribe decodes every message on topic into out. Invalid commands are
// logged and dropped; so are commands arriving while out is full, since the
// callback runs on the MQTT client's goroutine and must not block.
func Subscribe(client SubscribeClient, topic string, out chan<- Command) error {
	token := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		cmd, err := DecodeCommand(msg.Payload())
		if err != nil {
			log.Printf("telemetry: %v", err)
			return
		}
		select {
		case out <- cmd:
		default:
			log.Printf("telemetry: command queue full, dropping %s", cmd.Kind)
		}
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT subscribe %s: %w", topic, err)
	}
	log.Printf("telemetry: subscribed to %s", topic)
	return nil
}
