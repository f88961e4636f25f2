package dashboard

import (
	"sync"
	"time"

	"github.com/coal/deauthwatch/internal/blocklist"
)

const timeSeriesMinutes = 60

// Stats accumulates poll and action counters.
type Stats struct {
	mu sync.RWMutex

	ticksOK     uint64
	ticksFailed uint64
	lastTick    time.Time
	lastSuccess time.Time
	reachable   bool

	actionCounts map[string]uint64
	resultCounts map[string]uint64

	// Per-minute buckets for the last 60 minutes
	timeBuckets [timeSeriesMinutes]timeBucket
}

type timeBucket struct {
	minute time.Time // truncated to minute
	ticks  uint64
	failed uint64
}

// NewStats creates a new stats accumulator.
func NewStats() *Stats {
	return &Stats{
		actionCounts: make(map[string]uint64),
		resultCounts: make(map[string]uint64),
	}
}

// RecordTick ingests the result of one poll tick.
func (s *Stats) RecordTick(ok bool, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastTick = at
	s.reachable = ok
	if ok {
		s.ticksOK++
		s.lastSuccess = at
	} else {
		s.ticksFailed++
	}

	minute := at.UTC().Truncate(time.Minute)
	idx := minute.Minute() % timeSeriesMinutes
	if s.timeBuckets[idx].minute != minute {
		s.timeBuckets[idx] = timeBucket{minute: minute}
	}
	s.timeBuckets[idx].ticks++
	if !ok {
		s.timeBuckets[idx].failed++
	}
}

// RecordAction ingests one settled blocklist action.
func (s *Stats) RecordAction(out blocklist.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actionCounts[out.Action]++
	s.resultCounts[out.Result]++
}

// Snapshot returns a point-in-time copy of the stats.
func (s *Stats) Snapshot() *StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &StatsSnapshot{
		TicksOK:          s.ticksOK,
		TicksFailed:      s.ticksFailed,
		LastTick:         s.lastTick,
		LastSuccess:      s.lastSuccess,
		ActionCounts:     copyMap(s.actionCounts),
		ResultCounts:     copyMap(s.resultCounts),
		BackendReachable: s.reachable,
	}

	// Last 60 minutes, chronological
	now := time.Now().UTC().Truncate(time.Minute)
	cutoff := now.Add(-timeSeriesMinutes * time.Minute)
	for i := 0; i < timeSeriesMinutes; i++ {
		t := cutoff.Add(time.Duration(i+1) * time.Minute)
		b := s.timeBuckets[t.Minute()%timeSeriesMinutes]
		point := TimeSeriesPoint{Timestamp: t}
		if b.minute.Equal(t) {
			point.Ticks = b.ticks
			point.Failed = b.failed
		}
		snap.TimeSeries = append(snap.TimeSeries, point)
	}

	return snap
}

func copyMap(m map[string]uint64) map[string]uint64 {
	c := make(map[string]uint64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
