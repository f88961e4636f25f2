// Package poller refreshes attack logs and summaries on a fixed schedule.
package poller

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/coal/deauthwatch/internal/backend"
	"github.com/coal/deauthwatch/internal/metrics"
	"github.com/coal/deauthwatch/internal/state"
)

// DefaultInterval is the wall-clock period between ticks.
const DefaultInterval = 5 * time.Second

// Source is the subset of the backend client a tick needs.
type Source interface {
	Logs(ctx context.Context) ([]backend.AttackLogEntry, error)
	BlockchainSummary(ctx context.Context) (backend.BlockchainSummary, error)
	HybridSummary(ctx context.Context) (backend.HybridSummary, error)
}

// Poller runs one tick immediately and then one per interval. Ticks are
// independent: a slow tick does not delay or block the next one.
type Poller struct {
	src      Source
	store    *state.Store
	interval time.Duration
	onUpdate func()
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	cron *cron.Cron
}

// Config configures a Poller. OnUpdate runs after every tick, successful or
// not, and is where the caller re-renders.
type Config struct {
	// Interval is rounded down to whole seconds, with a 1s floor.
	Interval time.Duration
	OnUpdate func()
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// New creates a Poller writing into store.
func New(src Source, store *state.Store, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.OnUpdate == nil {
		cfg.OnUpdate = func() {}
	}
	cl := cronLogger{cfg.Logger}
	return &Poller{
		src:      src,
		store:    store,
		interval: cfg.Interval,
		onUpdate: cfg.OnUpdate,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
	}
}

// Start fires the first tick and schedules the rest. Requests issued by a
// tick are never cancelled.
func (p *Poller) Start() {
	job := cron.FuncJob(func() { p.Tick(context.Background()) })
	p.cron.Schedule(cron.Every(p.interval), job)
	p.cron.Start()
	go job.Run()

	p.logger.Info().Dur("interval", p.interval).Msg("poller started")
}

// Stop prevents further ticks. Ticks already running finish normally; the
// returned context is done once they have.
func (p *Poller) Stop() context.Context {
	return p.cron.Stop()
}

// Tick runs one poll cycle: the three fetches run concurrently and the
// store is only updated if all of them succeed.
func (p *Poller) Tick(ctx context.Context) error {
	var (
		g     errgroup.Group
		logs  []backend.AttackLogEntry
		chain backend.BlockchainSummary
		hyb   backend.HybridSummary
	)
	g.Go(func() (err error) {
		logs, err = p.src.Logs(ctx)
		return err
	})
	g.Go(func() (err error) {
		chain, err = p.src.BlockchainSummary(ctx)
		return err
	})
	g.Go(func() (err error) {
		hyb, err = p.src.HybridSummary(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		p.store.MarkUnreachable(err)
		result := metrics.PollError
		if backend.IsUnreachable(err) {
			result = metrics.PollUnreachable
		}
		p.metrics.ObservePoll(result, 0)
		p.logger.Warn().Err(err).Str("result", result).Msg("poll failed")
		p.onUpdate()
		return err
	}

	p.store.CommitPoll(state.PollData{
		Logs:       logs,
		Blockchain: chain,
		Hybrid:     hyb,
	})
	p.metrics.ObservePoll(metrics.PollOK, len(logs))
	p.logger.Debug().Int("logs", len(logs)).Msg("poll ok")
	p.onUpdate()
	return nil
}

// cronLogger adapts zerolog to cron's logger interface.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
