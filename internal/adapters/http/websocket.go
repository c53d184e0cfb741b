package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/schoolfinder/internal/adapters/nats"
	"github.com/samirrijal/schoolfinder/internal/core/domain"
	"github.com/samirrijal/schoolfinder/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to event types.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Event  string `json:"event"`  // "created" | "batch_created" | "purged" | "" (all)
}

// wsSubject maps a client event filter to a NATS subject.
func wsSubject(event string) (string, bool) {
	switch event {
	case "":
		return natsadapter.SubjectWildcard, true
	case domain.EventSchoolCreated, domain.EventSchoolsBatchCreated, domain.EventSchoolsPurged:
		return natsadapter.Subject(event), true
	default:
		return "", false
	}
}

type unsubscriber interface {
	Unsubscribe() error
}

// wsSubscriptions is one client's set of subjects. The wildcard never sits
// next to a specific subject, so each event reaches the client once.
type wsSubscriptions struct {
	subscribe func(subject string) (unsubscriber, error)
	subs      map[string]unsubscriber
}

func newWSSubscriptions(subscribe func(subject string) (unsubscriber, error)) *wsSubscriptions {
	return &wsSubscriptions{subscribe: subscribe, subs: make(map[string]unsubscriber)}
}

// add subscribes to subject. Subscribing to everything replaces the specific
// subjects, and subscribing to one event replaces the wildcard.
func (w *wsSubscriptions) add(subject string) (bool, error) {
	if _, ok := w.subs[subject]; ok {
		return false, nil
	}
	sub, err := w.subscribe(subject)
	if err != nil {
		return false, err
	}
	for existing := range w.subs {
		if subject == natsadapter.SubjectWildcard || existing == natsadapter.SubjectWildcard {
			w.remove(existing)
		}
	}
	w.subs[subject] = sub
	return true, nil
}

func (w *wsSubscriptions) remove(subject string) bool {
	sub, ok := w.subs[subject]
	if !ok {
		return false
	}
	_ = sub.Unsubscribe()
	delete(w.subs, subject)
	return true
}

func (w *wsSubscriptions) closeAll() {
	for subject := range w.subs {
		w.remove(subject)
	}
}

// WebSocketHandler returns a handler that relays school events from NATS to
// the connected client. Every client starts subscribed to all events; sending
// {"action":"subscribe","event":"created"} narrows that to created events.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}

		subs := newWSSubscriptions(func(subject string) (unsubscriber, error) {
			return nc.Subscribe(subject, relay)
		})
		defer subs.closeAll()
		if _, err := subs.add(natsadapter.SubjectWildcard); err != nil {
			slog.Error("ws default subscribe failed", "error", err)
			return
		}

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

			subject, ok := wsSubject(m.Event)
			if !ok {
				_ = writeJSON(map[string]string{"error": "unknown event: " + m.Event})
				continue
			}

			switch m.Action {
			case "subscribe":
				added, err := subs.add(subject)
				switch {
				case err != nil:
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
				case !added:
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
				default:
					_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})
				}

			case "unsubscribe":
				if subs.remove(subject) {
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
