// Package state holds the dashboard's in-memory view of the backend.
//
// Each group of fields is replaced as a whole with a single atomic store of a
// freshly built value, so readers never see a half-updated group. Writers do
// not coordinate: the last store wins.
package state

import (
	"sync/atomic"
	"time"

	"github.com/coal/deauthwatch/internal/backend"
)

// FeedbackKind distinguishes success from failure messages.
type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackFail    FeedbackKind = "fail"
)

// Feedback is a transient message shown in the result area.
type Feedback struct {
	ID        uint64       `json:"id"`
	Text      string       `json:"text"`
	Kind      FeedbackKind `json:"kind"`
	AutoClear bool         `json:"auto_clear"`
	Timestamp time.Time    `json:"timestamp"`
}

// PollData is everything one successful poll tick produces.
type PollData struct {
	Logs       []backend.AttackLogEntry
	Blockchain backend.BlockchainSummary
	Hybrid     backend.HybridSummary
	FetchedAt  time.Time
}

// PollHealth records whether the most recent tick reached the backend.
type PollHealth struct {
	Unreachable bool
	Err         string
	At          time.Time
}

// BlocklistCache is the last blocklist fetched for the panel. Err is set
// instead of List when the fetch failed.
type BlocklistCache struct {
	List backend.Blocklist
	Err  string
}

// Snapshot is a read-only view of the store for rendering.
type Snapshot struct {
	Poll      *PollData
	Health    PollHealth
	Blocklist *BlocklistCache
	PanelOpen bool
	Feedback  *Feedback
	Input     string
}

// ExplorerURL is the explorer link from the most recent successful poll.
func (s Snapshot) ExplorerURL() string {
	if s.Poll == nil {
		return ""
	}
	return s.Poll.Blockchain.ExplorerURL
}

// Store is the single source of truth for rendering.
type Store struct {
	poll      atomic.Pointer[PollData]
	health    atomic.Pointer[PollHealth]
	blocklist atomic.Pointer[BlocklistCache]
	feedback  atomic.Pointer[Feedback]
	input     atomic.Pointer[string]
	panelOpen atomic.Bool

	feedbackSeq atomic.Uint64
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Snapshot returns the current contents of every group.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Poll:      s.poll.Load(),
		Blocklist: s.blocklist.Load(),
		PanelOpen: s.panelOpen.Load(),
		Feedback:  s.feedback.Load(),
		Input:     s.Input(),
	}
	if h := s.health.Load(); h != nil {
		snap.Health = *h
	}
	return snap
}

// CommitPoll replaces logs and both summaries and marks the backend healthy.
func (s *Store) CommitPoll(data PollData) {
	logs := make([]backend.AttackLogEntry, len(data.Logs))
	copy(logs, data.Logs)
	data.Logs = logs
	if data.FetchedAt.IsZero() {
		data.FetchedAt = time.Now().UTC()
	}

	s.poll.Store(&data)
	s.health.Store(&PollHealth{At: data.FetchedAt})
}

// MarkUnreachable records a failed tick without touching poll data.
func (s *Store) MarkUnreachable(err error) {
	h := &PollHealth{Unreachable: true, At: time.Now().UTC()}
	if err != nil {
		h.Err = err.Error()
	}
	s.health.Store(h)
}

// ExplorerURL returns the explorer link from the last successful poll.
func (s *Store) ExplorerURL() string {
	if p := s.poll.Load(); p != nil {
		return p.Blockchain.ExplorerURL
	}
	return ""
}

// SetBlocklist caches a freshly fetched blocklist.
func (s *Store) SetBlocklist(bl backend.Blocklist) {
	macs := make([]string, len(bl.MACs))
	copy(macs, bl.MACs)
	bl.MACs = macs
	s.blocklist.Store(&BlocklistCache{List: bl})
}

// SetBlocklistError records a failed blocklist fetch.
func (s *Store) SetBlocklistError(err error) {
	s.blocklist.Store(&BlocklistCache{Err: err.Error()})
}

// PanelOpen reports whether the blocklist panel is visible.
func (s *Store) PanelOpen() bool {
	return s.panelOpen.Load()
}

// TogglePanel flips panel visibility and returns the new value.
func (s *Store) TogglePanel() bool {
	for {
		cur := s.panelOpen.Load()
		if s.panelOpen.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}

// SetPanelOpen sets panel visibility.
func (s *Store) SetPanelOpen(open bool) {
	s.panelOpen.Store(open)
}

// Input returns the free-text MAC field contents.
func (s *Store) Input() string {
	if p := s.input.Load(); p != nil {
		return *p
	}
	return ""
}

// SetInput replaces the free-text MAC field contents.
func (s *Store) SetInput(v string) {
	s.input.Store(&v)
}

// ClearInput empties the free-text MAC field.
func (s *Store) ClearInput() {
	s.SetInput("")
}

// Feedback returns the current result-area message, or nil.
func (s *Store) Feedback() *Feedback {
	return s.feedback.Load()
}

// SetFeedback publishes a new result-area message and returns it with its ID.
func (s *Store) SetFeedback(text string, kind FeedbackKind, autoClear bool) Feedback {
	fb := &Feedback{
		ID:        s.feedbackSeq.Add(1),
		Text:      text,
		Kind:      kind,
		AutoClear: autoClear,
		Timestamp: time.Now().UTC(),
	}
	s.feedback.Store(fb)
	return *fb
}

// ClearFeedback removes the message with the given ID. A newer message is
// left in place. It reports whether anything was cleared.
func (s *Store) ClearFeedback(id uint64) bool {
	cur := s.feedback.Load()
	if cur == nil || cur.ID != id {
		return false
	}
	return s.feedback.CompareAndSwap(cur, nil)
}
