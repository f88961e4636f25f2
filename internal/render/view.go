// Package render projects a state.Snapshot into display text. Build is a
// pure function: the same snapshot always yields the same View.
package render

import (
	"fmt"
	"strconv"

	"github.com/coal/deauthwatch/internal/backend"
	"github.com/coal/deauthwatch/internal/state"
)

// MaxRows is how many attack log entries the table shows.
const MaxRows = 20

// strongThreshold is the dBm value a signal must exceed to count as strong.
const strongThreshold = -50

// Placeholder and status texts.
const (
	PlaceholderCount  = "--"
	PlaceholderAppID  = "N/A"
	MsgNoAttacks      = "No attacks detected yet"
	MsgWaiting        = "Waiting for first update from backend..."
	MsgBackendDown    = "Backend not running - start the detection API server"
	MsgNoBlocked      = "No MACs blocked yet"
	MsgBlocklistLoad  = "Loading blocked MACs..."
	MsgBlocklistError = "Error loading blocked MACs. Is the backend running?"
)

// Strength classifies a row's signal cell.
type Strength string

const (
	StrengthStrong Strength = "sigStrong"
	StrengthNormal Strength = "sigNormal"
)

// View is the complete rendered dashboard.
type View struct {
	LocalLogs      string         `json:"local_logs"`
	BlockchainLogs string         `json:"blockchain_logs"`
	AppID          string         `json:"app_id"`
	ExplorerURL    string         `json:"explorer_url"`
	Attacks        AttackTable    `json:"attacks"`
	Panel          BlocklistPanel `json:"panel"`
	Result         ResultArea     `json:"result"`
}

// AttackTable is either a list of rows or, when Message is set, a single
// placeholder row spanning every column.
type AttackTable struct {
	Rows    []AttackRow `json:"rows"`
	Message string      `json:"message,omitempty"`
}

// AttackRow is one displayed attack. BlockMAC is bound when the row is
// rendered and is what the row's Block button submits.
type AttackRow struct {
	Timestamp string   `json:"timestamp"`
	MAC       string   `json:"mac"`
	Signal    string   `json:"signal"`
	Channel   string   `json:"channel"`
	Message   string   `json:"message"`
	Strength  Strength `json:"strength"`
	BlockMAC  string   `json:"block_mac"`
}

// BlocklistPanel is the blocked-devices panel. When Message is set it
// replaces the header and entries.
type BlocklistPanel struct {
	Visible bool         `json:"visible"`
	Message string       `json:"message,omitempty"`
	IsError bool         `json:"is_error,omitempty"`
	Header  string       `json:"header,omitempty"`
	Entries []BlockedRow `json:"entries"`
}

// BlockedRow is one blocked MAC with its Unblock binding.
type BlockedRow struct {
	MAC        string `json:"mac"`
	UnblockMAC string `json:"unblock_mac"`
}

// ResultArea is the feedback line under the MAC input.
type ResultArea struct {
	Text string `json:"text"`
	Kind string `json:"kind,omitempty"`
}

// Build renders snap.
func Build(snap state.Snapshot) View {
	v := View{
		LocalLogs:      PlaceholderCount,
		BlockchainLogs: PlaceholderCount,
		AppID:          "App ID: " + PlaceholderAppID,
		Panel:          buildPanel(snap),
	}

	if p := snap.Poll; p != nil {
		v.LocalLogs = formatCount(p.Hybrid.LocalLogs)
		v.BlockchainLogs = formatCount(p.Blockchain.TotalLogs)
		if p.Blockchain.AppID != nil {
			v.AppID = "App ID: " + string(*p.Blockchain.AppID)
		}
		v.ExplorerURL = p.Blockchain.ExplorerURL
	}

	switch {
	case snap.Health.Unreachable:
		v.Attacks.Message = MsgBackendDown
	case snap.Poll == nil:
		v.Attacks.Message = MsgWaiting
	default:
		v.Attacks = buildTable(snap.Poll.Logs)
	}

	if fb := snap.Feedback; fb != nil {
		v.Result = ResultArea{Text: fb.Text, Kind: string(fb.Kind)}
	}
	return v
}

func buildTable(logs []backend.AttackLogEntry) AttackTable {
	if len(logs) == 0 {
		return AttackTable{Message: MsgNoAttacks}
	}
	if len(logs) > MaxRows {
		logs = logs[:MaxRows]
	}

	rows := make([]AttackRow, 0, len(logs))
	for _, e := range logs {
		rows = append(rows, AttackRow{
			Timestamp: string(e.Timestamp),
			MAC:       string(e.MAC),
			Signal:    string(e.Signal),
			Channel:   string(e.Channel),
			Message:   string(e.Message),
			Strength:  ClassifySignal(string(e.Signal)),
			BlockMAC:  string(e.MAC),
		})
	}
	return AttackTable{Rows: rows}
}

func buildPanel(snap state.Snapshot) BlocklistPanel {
	p := BlocklistPanel{Visible: snap.PanelOpen}

	switch c := snap.Blocklist; {
	case c == nil:
		p.Message = MsgBlocklistLoad
	case c.Err != "":
		p.Message = MsgBlocklistError
		p.IsError = true
	case len(c.List.MACs) == 0:
		p.Message = MsgNoBlocked
	default:
		p.Header = fmt.Sprintf("Total: %d | Last Updated: %s", c.List.Total, c.List.LastUpdated)
		p.Entries = make([]BlockedRow, 0, len(c.List.MACs))
		for _, m := range c.List.MACs {
			p.Entries = append(p.Entries, BlockedRow{MAC: m, UnblockMAC: m})
		}
	}
	return p
}

// ClassifySignal returns StrengthStrong when the leading integer of signal
// exceeds -50 dBm. Values without a leading integer are normal.
func ClassifySignal(signal string) Strength {
	v, ok := leadingInt(signal)
	if ok && v > strongThreshold {
		return StrengthStrong
	}
	return StrengthNormal
}

// leadingInt parses an optional sign and the digits that follow it, after
// leading whitespace. Anything after the digits is ignored.
func leadingInt(s string) (int64, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, false
	}
	v, err := strconv.ParseInt(s[start:i], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatCount(n *int64) string {
	if n == nil {
		return PlaceholderCount
	}
	return strconv.FormatInt(*n, 10)
}
