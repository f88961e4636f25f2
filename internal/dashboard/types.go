package dashboard

import (
	"time"

	"github.com/coal/deauthwatch/internal/render"
)

// ActivityEvent is one settled blocklist action as shown in the activity feed.
type ActivityEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	MAC       string    `json:"mac"`
	Source    string    `json:"source"`
	Result    string    `json:"result"`
	Text      string    `json:"text"`
}

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// StatsSnapshot is a point-in-time snapshot of dashboard counters.
type StatsSnapshot struct {
	TicksOK          uint64            `json:"ticks_ok"`
	TicksFailed      uint64            `json:"ticks_failed"`
	LastTick         time.Time         `json:"last_tick,omitempty"`
	LastSuccess      time.Time         `json:"last_success,omitempty"`
	ActionCounts     map[string]uint64 `json:"action_counts"`
	ResultCounts     map[string]uint64 `json:"result_counts"`
	TimeSeries       []TimeSeriesPoint `json:"time_series"`
	BackendReachable bool              `json:"backend_reachable"`
}

// TimeSeriesPoint is one minute of poll ticks.
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Ticks     uint64    `json:"ticks"`
	Failed    uint64    `json:"failed"`
}

// InitialState is sent to clients on WebSocket connect.
type InitialState struct {
	View     render.Fragments `json:"view"`
	Activity []*ActivityEvent `json:"activity"`
	Stats    *StatsSnapshot   `json:"stats"`
}
