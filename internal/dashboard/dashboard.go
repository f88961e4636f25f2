// Package dashboard hosts the operator dashboard: it owns the state store,
// drives the poller, binds the blocklist workflow to HTTP actions and
// pushes every re-render to connected browsers.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coal/deauthwatch/internal/audit"
	"github.com/coal/deauthwatch/internal/blocklist"
	"github.com/coal/deauthwatch/internal/metrics"
	"github.com/coal/deauthwatch/internal/poller"
	"github.com/coal/deauthwatch/internal/render"
	"github.com/coal/deauthwatch/internal/state"
)

// Backend is everything the dashboard calls on the detection backend.
type Backend interface {
	poller.Source
	blocklist.Backend
}

// Options configures a Dashboard.
type Options struct {
	PollInterval time.Duration
	ClearDelay   time.Duration
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
	Audit        *audit.Logger
}

// Dashboard is the controller for one dashboard session.
type Dashboard struct {
	store    *state.Store
	poller   *poller.Poller
	workflow *blocklist.Workflow
	hub      *Hub
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	// renderMu orders publishes so clients receive views in build order.
	// Publish only queues, so holding it never waits on a client.
	renderMu sync.Mutex
}

// New wires a Dashboard around api.
func New(api Backend, opts Options) *Dashboard {
	d := &Dashboard{
		store:   state.New(),
		hub:     NewHub(opts.Logger),
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}

	d.poller = poller.New(api, d.store, poller.Config{
		Interval: opts.PollInterval,
		OnUpdate: d.onPoll,
		Logger:   opts.Logger.With().Str("component", "poller").Logger(),
		Metrics:  opts.Metrics,
	})
	d.workflow = blocklist.New(api, d.store, blocklist.Config{
		ClearDelay: opts.ClearDelay,
		OnChange:   d.Refresh,
		OnOutcome:  d.hub.OnOutcome,
		Logger:     opts.Logger.With().Str("component", "blocklist").Logger(),
		Metrics:    opts.Metrics,
		Audit:      opts.Audit,
	})
	return d
}

// Start begins polling and the periodic stats push. Both run for the life
// of the process.
func (d *Dashboard) Start(ctx context.Context) {
	d.Refresh()
	d.poller.Start()
	go d.hub.StartStatsBroadcast(ctx, 5*time.Second)
}

// Stop halts further poll ticks.
func (d *Dashboard) Stop() {
	<-d.poller.Stop().Done()
}

// Store exposes the state store.
func (d *Dashboard) Store() *state.Store { return d.store }

// Workflow exposes the blocklist workflow.
func (d *Dashboard) Workflow() *blocklist.Workflow { return d.workflow }

// Hub exposes the websocket hub.
func (d *Dashboard) Hub() *Hub { return d.hub }

// Poller exposes the poller.
func (d *Dashboard) Poller() *poller.Poller { return d.poller }

// View renders the current store contents.
func (d *Dashboard) View() render.View {
	return render.Build(d.store.Snapshot())
}

// Refresh re-renders the store and publishes the result.
func (d *Dashboard) Refresh() {
	d.renderMu.Lock()
	defer d.renderMu.Unlock()

	frags, err := render.HTML(d.View())
	if err != nil {
		d.logger.Error().Err(err).Msg("rendering dashboard")
		return
	}
	d.hub.Publish(frags)
}

func (d *Dashboard) onPoll() {
	h := d.store.Snapshot().Health
	d.hub.OnTick(!h.Unreachable, h.At)
	d.Refresh()
}
