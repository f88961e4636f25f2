package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Text is a display value the backend may send as a JSON string, number or
// boolean. Numbers keep their literal spelling.
type Text string

// UnmarshalJSON accepts any JSON scalar.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.(type) {
	case float64, bool:
		*t = Text(data)
		return nil
	}
	return fmt.Errorf("cannot display JSON value %s", data)
}

// AttackLogEntry is one detected attack event, as displayed.
type AttackLogEntry struct {
	Timestamp Text `json:"timestamp"`
	MAC       Text `json:"mac"`
	Signal    Text `json:"signal"`
	Channel   Text `json:"channel"`
	Message   Text `json:"message"`
}

// BlockchainSummary is the anchored-log summary. Nil pointers mean the
// backend sent null or omitted the field.
type BlockchainSummary struct {
	TotalLogs   *int64
	AppID       *Text
	ExplorerURL string
}

// HybridSummary carries the local log count.
type HybridSummary struct {
	LocalLogs *int64
}

// Blocklist is the client's cached copy of the backend blocklist.
type Blocklist struct {
	MACs        []string
	Total       int
	LastUpdated string
}

type blockchainBody struct {
	TotalBlockchainLogs *int64  `json:"total_blockchain_logs"`
	AppID               *Text   `json:"app_id"`
	Explorer            *string `json:"explorer"`
}

type hybridBody struct {
	LocalLogs *int64 `json:"local_logs"`
}

type blocklistBody struct {
	BlockedMACs []string `json:"blocked_macs"`
	Total       *int     `json:"total"`
	LastUpdated *Text    `json:"last_updated"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
