package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/line_follower/internal/config"
	"github.com/relabs-tech/line_follower/internal/motion"
	"github.com/relabs-tech/line_follower/internal/orientation"
	"github.com/relabs-tech/line_follower/internal/telemetry"
)

func formatAttitude(st orientation.State) string {
	bias := "calibrating"
	if st.BiasCommitted {
		bias = fmt.Sprintf("bias=(%.3f,%.3f,%.3f)", st.GyroBias[0], st.GyroBias[1], st.GyroBias[2])
	}
	return fmt.Sprintf("[ATT]  ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f  kp=%.1f  %s",
		st.Roll, st.Pitch, st.Yaw, st.Kp, bias)
}

func formatMotion(st motion.Status) string {
	drive := "idle"
	if st.Driven {
		drive = fmt.Sprintf("L=%+.3f R=%+.3f", st.Command.Left, st.Command.Right)
	}
	return fmt.Sprintf("[MOT]  mission=%d state=%-13s line=%-5t %s prompts=%d",
		st.Mission, st.State, st.LinePresent, drive, st.Prompts)
}

func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to attitude
	attToken := client.Subscribe(cfg.TopicAttitude, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st orientation.State
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("console: attitude unmarshal error: %v", err)
			return
		}
		fmt.Println(formatAttitude(st))
	})
	attToken.Wait()
	if attToken.Error() != nil {
		return attToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicAttitude)

	// Subscribe to motion
	motToken := client.Subscribe(cfg.TopicMotion, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st motion.Status
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("console: motion unmarshal error: %v", err)
			return
		}
		fmt.Println(formatMotion(st))
	})
	motToken.Wait()
	if motToken.Error() != nil {
		return motToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicMotion)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
