package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/line_follower/internal/config"
	"github.com/relabs-tech/line_follower/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// snapshots holds the latest raw telemetry payloads.
type snapshots struct {
	mu       sync.RWMutex
	attitude json.RawMessage
	motion   json.RawMessage
	version  uint64
}

func (s *snapshots) set(dst *json.RawMessage, payload []byte) {
	s.mu.Lock()
	*dst = append(json.RawMessage(nil), payload...)
	s.version++
	s.mu.Unlock()
}

func (s *snapshots) get() (attitude, motion json.RawMessage, version uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attitude, s.motion, s.version
}

// WSUpdate is pushed to websocket clients whenever telemetry changes.
type WSUpdate struct {
	Type     string          `json:"type"` // telemetry, ack, error
	Attitude json.RawMessage `json:"attitude,omitempty"`
	Motion   json.RawMessage `json:"motion,omitempty"`
	Message  string          `json:"message,omitempty"`
}

type webServer struct {
	snaps   *snapshots
	send    func(telemetry.Command) error
	refresh time.Duration
}

func (ws *webServer) mux(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/attitude", ws.serveSnapshot(func(a, _ json.RawMessage) json.RawMessage { return a }))
	mux.HandleFunc("/api/motion", ws.serveSnapshot(func(_, m json.RawMessage) json.RawMessage { return m }))
	mux.HandleFunc("/ws", ws.handleWS)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

func (ws *webServer) serveSnapshot(pick func(a, m json.RawMessage) json.RawMessage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, m, _ := ws.snaps.get()
		payload := pick(a, m)
		if payload == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(payload); err != nil {
			log.Printf("web: write error: %v", err)
		}
	}
}

// handleWS streams telemetry to the client and forwards the commands it
// sends to the vehicle.
func (ws *webServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	write := func(u WSUpdate) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(u)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var cmd telemetry.Command
			if err := conn.ReadJSON(&cmd); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket read error: %v", err)
				}
				return
			}
			reply := WSUpdate{Type: "ack", Message: string(cmd.Kind)}
			if err := cmd.Validate(); err != nil {
				reply = WSUpdate{Type: "error", Message: err.Error()}
			} else if err := ws.send(cmd); err != nil {
				reply = WSUpdate{Type: "error", Message: err.Error()}
			}
			if err := write(reply); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(ws.refresh)
	defer ticker.Stop()
	var seen uint64
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
		a, m, v := ws.snaps.get()
		if v == seen {
			continue
		}
		seen = v
		if err := write(WSUpdate{Type: "telemetry", Attitude: a, Motion: m}); err != nil {
			log.Printf("web: websocket write error: %v", err)
			return
		}
	}
}

func RunWeb() error {
	cfg := config.Get()
	snaps := &snapshots{}

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	subs := map[string]*json.RawMessage{
		cfg.TopicAttitude: &snaps.attitude,
		cfg.TopicMotion:   &snaps.motion,
	}
	for topic, dst := range subs {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if !json.Valid(msg.Payload()) {
				log.Printf("web: invalid JSON on %s", msg.Topic())
				return
			}
			snaps.set(dst, msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("web: subscribed to %s", topic)
	}

	ws := &webServer{
		snaps:   snaps,
		refresh: cfg.TelemetryInterval(),
		send: func(cmd telemetry.Command) error {
			payload, err := json.Marshal(cmd)
			if err != nil {
				return err
			}
			if token := client.Publish(cfg.TopicCommand, 1, false, payload); token.Wait() && token.Error() != nil {
				return fmt.Errorf("MQTT publish error (%s): %w", cfg.TopicCommand, token.Error())
			}
			return nil
		},
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, ws.mux("web"))
}
