package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/coal/deauthwatch/internal/blocklist"
	"github.com/coal/deauthwatch/internal/render"
)

var activityCounter atomic.Uint64

const (
	writeTimeout = 5 * time.Second

	// sendQueueSize bounds the messages waiting for one client. A client
	// that falls this far behind is disconnected.
	sendQueueSize = 64
)

// client is one connected browser. Messages are queued on send and written
// by the client's own goroutine so a slow reader never blocks publishers.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub manages WebSocket clients and pushes rendered views, activity and
// stats to them.
type Hub struct {
	activity *RingBuffer[*ActivityEvent]
	stats    *Stats
	logger   zerolog.Logger

	// latest is the most recently published view.
	latest atomic.Pointer[render.Fragments]

	mu      sync.RWMutex
	clients map[*websocket.Conn]*client
}

// NewHub creates a new dashboard hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		activity: NewRingBuffer[*ActivityEvent](defaultBufferSize),
		stats:    NewStats(),
		logger:   logger,
		clients:  make(map[*websocket.Conn]*client),
	}
}

// Publish records f as the current view and sends it to every client.
func (h *Hub) Publish(f render.Fragments) {
	h.latest.Store(&f)
	h.broadcast(WSMessage{Type: "render", Payload: f})
}

// Latest returns the most recently published view.
func (h *Hub) Latest() render.Fragments {
	if f := h.latest.Load(); f != nil {
		return *f
	}
	return render.Fragments{}
}

// OnOutcome is the observer callback to register with the blocklist workflow.
func (h *Hub) OnOutcome(out blocklist.Outcome) {
	event := &ActivityEvent{
		ID:        fmt.Sprintf("act-%d", activityCounter.Add(1)),
		Timestamp: out.Feedback.Timestamp,
		Action:    out.Action,
		MAC:       out.MAC,
		Source:    out.Source,
		Result:    out.Result,
		Text:      out.Feedback.Text,
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.activity.Add(event)
	h.stats.RecordAction(out)
	h.broadcast(WSMessage{Type: "activity", Payload: event})
}

// OnTick records the result of a poll tick.
func (h *Hub) OnTick(ok bool, at time.Time) {
	h.stats.RecordTick(ok, at)
}

// Register adds a WebSocket client and queues the initial state for it.
func (h *Hub) Register(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendQueueSize)}

	initial := WSMessage{
		Type: "initial_state",
		Payload: InitialState{
			View:     h.Latest(),
			Activity: h.activity.All(),
			Stats:    h.stats.Snapshot(),
		},
	}
	if data, err := json.Marshal(initial); err == nil {
		c.send <- data
	} else {
		h.logger.Error().Err(err).Msg("encoding initial state")
	}

	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()

	go h.writeLoop(c)
}

// Unregister removes a WebSocket client and stops its writer.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast queues a message for every connected client without waiting
// for any of them. Clients whose queue is full are dropped.
func (h *Hub) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("encoding websocket message")
		return
	}

	var slow []*websocket.Conn
	h.mu.RLock()
	for conn, c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range slow {
		h.logger.Warn().Msg("dropping slow websocket client")
		h.Unregister(conn)
	}
}

// writeLoop drains c.send until the client is unregistered, then closes
// the connection.
func (h *Hub) writeLoop(c *client) {
	failed := false
	for data := range c.send {
		if failed {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			failed = true
			h.Unregister(c.conn)
		}
	}
	c.conn.Close(websocket.StatusGoingAway, "")
}

// StartStatsBroadcast pushes stats snapshots to all clients every interval.
func (h *Hub) StartStatsBroadcast(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.broadcast(WSMessage{Type: "stats_update", Payload: h.stats.Snapshot()})
		}
	}
}

// Activity returns the activity buffer.
func (h *Hub) Activity() *RingBuffer[*ActivityEvent] {
	return h.activity
}

// StatsSnapshot returns a snapshot of accumulated stats.
func (h *Hub) StatsSnapshot() *StatsSnapshot {
	return h.stats.Snapshot()
}
