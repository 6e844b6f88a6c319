package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Realtime is a websocket client for the backend's change feed. It
// speaks the phoenix-channel framing: join per topic, periodic
// heartbeats, change events dispatched to registered handlers.
type Realtime struct {
	mu       sync.RWMutex
	url      string
	conn     *websocket.Conn
	handlers map[string][]ChangeHandler
	joined   map[string]bool
	done     chan struct{}
	ref      int
}

// ChangeHandler observes a single database change event.
type ChangeHandler func(event *ChangeEvent)

// ChangeEvent is one realtime message.
type ChangeEvent struct {
	Event   string         `json:"event"`
	Topic   string         `json:"topic"`
	Payload map[string]any `json:"payload"`
	Ref     string         `json:"ref"`
}

// Record extracts the changed row from the event payload.
func (e *ChangeEvent) Record() map[string]any {
	if rec, ok := e.Payload["record"].(map[string]any); ok {
		return rec
	}
	return nil
}

// NewRealtime builds a realtime client for the given project URL.
func NewRealtime(supabaseURL, apiKey string) *Realtime {
	wsURL := supabaseURL
	switch {
	case strings.HasPrefix(wsURL, "https"):
		wsURL = "wss" + wsURL[len("https"):]
	case strings.HasPrefix(wsURL, "http"):
		wsURL = "ws" + wsURL[len("http"):]
	}
	wsURL += "/realtime/v1/websocket?apikey=" + apiKey + "&vsn=1.0.0"

	return &Realtime{
		url:      wsURL,
		handlers: make(map[string][]ChangeHandler),
		joined:   make(map[string]bool),
		done:     make(chan struct{}),
	}
}

// Connect dials the websocket and starts the reader and heartbeat
// goroutines. Calling Connect on a connected client is a no-op.
func (r *Realtime) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	r.conn = conn
	r.done = make(chan struct{})

	go r.readLoop()
	go r.heartbeat()
	return nil
}

// Close tears the connection down.
func (r *Realtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}
	close(r.done)

	_ = r.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	err := r.conn.Close()
	r.conn = nil
	return err
}

// Subscribe joins the change feed of a table for one event kind
// (INSERT, UPDATE, DELETE) and registers the handler for it. Handlers
// run on their own goroutines.
func (r *Realtime) Subscribe(table, event string, handler ChangeHandler) error {
	topic := "realtime:public:" + table

	r.mu.Lock()
	defer r.mu.Unlock()

	key := topic + ":" + event
	r.handlers[key] = append(r.handlers[key], handler)

	if r.joined[topic] {
		return nil
	}
	if r.conn == nil {
		return fmt.Errorf("realtime: not connected")
	}

	r.ref++
	ref := fmt.Sprintf("%d", r.ref)
	msg := map[string]any{
		"topic":    topic,
		"event":    "phx_join",
		"payload":  map[string]any{},
		"ref":      ref,
		"join_ref": ref,
	}
	if err := r.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	r.joined[topic] = true
	return nil
}

func (r *Realtime) readLoop() {
	for {
		select {
		case <-r.done:
			return
		default:
		}

		r.mu.RLock()
		conn := r.conn
		r.mu.RUnlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var event ChangeEvent
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}
		r.dispatch(&event)
	}
}

func (r *Realtime) dispatch(event *ChangeEvent) {
	eventType := event.Event
	if t, ok := event.Payload["type"].(string); ok {
		eventType = t
	}

	r.mu.RLock()
	handlers := r.handlers[event.Topic+":"+eventType]
	r.mu.RUnlock()

	for _, handler := range handlers {
		go handler(event)
	}
}

func (r *Realtime) heartbeat() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.conn != nil {
				r.ref++
				_ = r.conn.WriteJSON(map[string]any{
					"topic":   "phoenix",
					"event":   "heartbeat",
					"payload": map[string]any{},
					"ref":     fmt.Sprintf("%d", r.ref),
				})
			}
			r.mu.Unlock()
		}
	}
}
