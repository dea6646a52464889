package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/encoding/protojson"

	natsadapter "github.com/samirrijal/meteomcp/internal/adapters/nats"
	"github.com/samirrijal/meteomcp/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "resolved" | "invalidations" (default: resolved)
	Country string `json:"country"` // country filter for resolved events (optional, "" = all)
}

// RelayEvent converts a NATS payload into the JSON frame sent to clients.
// ok is false when the event does not pass the country filter.
func RelayEvent(data []byte, country string) (frame []byte, ok bool, err error) {
	s, err := natsadapter.DecodeStruct(data)
	if err != nil {
		return nil, false, err
	}
	if country != "" && !strings.EqualFold(s.GetFields()["country"].GetStringValue(), country) {
		return nil, false, nil
	}
	frame, err = protojson.Marshal(s)
	if err != nil {
		return nil, false, err
	}
	return frame, true, nil
}

// WebSocketHandler returns a handler that upgrades to WebSocket
// and relays location events from NATS to connected clients.
// Clients send JSON: {"action":"subscribe","channel":"resolved","country":"France"}.
// Every client starts subscribed to all resolved events.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		log := slog.Default().With("remote", c.RemoteAddr().String())
		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "event feed not configured"})
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Info("ws client connected")

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // channel|country -> subscription

		writeFrame := func(data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			return writeFrame(data)
		}

		subscribe := func(channel, country string) (*nats.Subscription, error) {
			subject := natsadapter.ResolvedWildcard
			if channel == "invalidations" {
				subject = natsadapter.SubjectInvalidate
				country = ""
			}
			return nc.Subscribe(subject, func(msg *nats.Msg) {
				frame, ok, err := RelayEvent(msg.Data, country)
				if err != nil {
					log.Warn("ws relay decode failed", "subject", msg.Subject, "error", err)
					return
				}
				if ok {
					_ = writeFrame(frame)
				}
			})
		}

		sub, err := subscribe("resolved", "")
		if err != nil {
			log.Error("ws default subscribe failed", "error", err)
			return
		}
		subs["resolved|"] = sub

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			channel := m.Channel
			if channel == "" {
				channel = "resolved"
			}
			if channel != "resolved" && channel != "invalidations" {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + channel})
				continue
			}
			key := channel + "|" + strings.ToLower(m.Country)

			switch m.Action {
			case "subscribe":
				if _, exists := subs[key]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "channel": channel})
					continue
				}
				s, err := subscribe(channel, m.Country)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[key] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "channel": channel, "country": m.Country})

			case "unsubscribe":
				if s, exists := subs[key]; exists {
					_ = s.Unsubscribe()
					delete(subs, key)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "channel": channel})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + channel})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		log.Info("ws client disconnected")
	}
}
