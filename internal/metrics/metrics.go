// Package metrics exposes dashboard counters in Prometheus format.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll tick results.
const (
	PollOK          = "ok"
	PollUnreachable = "unreachable"
	PollError       = "error"
)

// Metrics holds the dashboard's collectors.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	pollTicks    *prometheus.CounterVec
	actions      *prometheus.CounterVec
	lastPoll     prometheus.Gauge
	attackLogs   prometheus.Gauge
	blockedCount prometheus.Gauge
}

// New registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		pollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deauthwatch_poll_ticks_total",
			Help: "Poll ticks by result",
		}, []string{"result"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deauthwatch_blocklist_actions_total",
			Help: "Block and unblock actions by outcome",
		}, []string{"action", "result"}),
		lastPoll: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "deauthwatch_last_successful_poll_timestamp_seconds",
			Help: "Unix time of the last poll tick that reached the backend",
		}),
		attackLogs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "deauthwatch_attack_logs",
			Help: "Attack log entries returned by the last successful poll",
		}),
		blockedCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "deauthwatch_blocked_macs",
			Help: "Blocked MAC addresses in the last fetched blocklist",
		}),
	}
	reg.MustRegister(m.pollTicks, m.actions, m.lastPoll, m.attackLogs, m.blockedCount)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

// ObservePoll records one poll tick. logs is ignored unless result is PollOK.
func (m *Metrics) ObservePoll(result string, logs int) {
	if m == nil {
		return
	}
	m.pollTicks.WithLabelValues(result).Inc()
	if result == PollOK {
		m.lastPoll.Set(float64(time.Now().Unix()))
		m.attackLogs.Set(float64(logs))
	}
}

// ObserveAction records one block or unblock outcome.
func (m *Metrics) ObserveAction(action, result string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, result).Inc()
}

// ObserveBlocklist records the size of a fetched blocklist.
func (m *Metrics) ObserveBlocklist(total int) {
	if m == nil {
		return
	}
	m.blockedCount.Set(float64(total))
}
