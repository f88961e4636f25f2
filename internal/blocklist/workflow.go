// Package blocklist runs operator block and unblock actions against the
// backend and reports each outcome through the result area.
package blocklist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/coal/deauthwatch/internal/audit"
	"github.com/coal/deauthwatch/internal/backend"
	"github.com/coal/deauthwatch/internal/mac"
	"github.com/coal/deauthwatch/internal/metrics"
	"github.com/coal/deauthwatch/internal/state"
)

// ErrInvalidMAC is returned when a MAC fails validation. The backend is not
// contacted.
var ErrInvalidMAC = errors.New("invalid MAC address format")

// DefaultClearDelay is how long field-sourced feedback stays visible.
const DefaultClearDelay = 2200 * time.Millisecond

// Feedback texts.
const (
	MsgInvalidMAC      = "Invalid MAC address format!"
	MsgBlockFailed     = "Failed to block MAC!"
	MsgUnblockFailed   = "Failed to unblock MAC!"
	MsgContactBackend  = "Failed to contact firewall backend."
	unblockErrorPrefix = "Failed to unblock: "
)

// Action outcomes, as recorded in metrics and the audit log.
const (
	ResultSuccess      = "success"
	ResultInvalid      = "invalid"
	ResultBackendError = "backend_error"
	ResultUnreachable  = "unreachable"
)

// Source says where the MAC of a request comes from.
type Source int

const (
	// SourceArgument uses Request.MAC as given (row button, CLI argument).
	SourceArgument Source = iota
	// SourceField reads and trims the free-text input field.
	SourceField
)

func (s Source) String() string {
	if s == SourceField {
		return "field"
	}
	return "argument"
}

// Request is one block invocation.
type Request struct {
	MAC    string
	Source Source
}

// FromArgument requests a block of mac.
func FromArgument(mac string) Request {
	return Request{MAC: mac, Source: SourceArgument}
}

// FromField requests a block of whatever the input field holds.
func FromField() Request {
	return Request{Source: SourceField}
}

// Outcome is how an invocation settled.
type Outcome struct {
	Action   string         `json:"action"`
	MAC      string         `json:"mac"`
	Source   string         `json:"source"`
	Result   string         `json:"result"`
	Feedback state.Feedback `json:"feedback"`
	Err      error          `json:"-"`
}

// OK reports whether the backend accepted the action.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Backend is the subset of the backend client the workflow needs.
type Backend interface {
	Block(ctx context.Context, mac string) error
	Unblock(ctx context.Context, mac string) error
	Blocklist(ctx context.Context) (backend.Blocklist, error)
}

// Config configures a Workflow. OnChange runs whenever the store changed
// and the dashboard should re-render; OnOutcome observes every settled
// invocation.
type Config struct {
	ClearDelay time.Duration
	OnChange   func()
	OnOutcome  func(Outcome)
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	Audit      *audit.Logger

	// AfterFunc schedules feedback clearing. Defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func())
}

// Workflow orchestrates block and unblock. Invocations are independent and
// may overlap; nothing serialises them.
type Workflow struct {
	api   Backend
	store *state.Store
	cfg   Config
}

// New creates a Workflow writing feedback and blocklist data into store.
func New(api Backend, store *state.Store, cfg Config) *Workflow {
	if cfg.ClearDelay <= 0 {
		cfg.ClearDelay = DefaultClearDelay
	}
	if cfg.OnChange == nil {
		cfg.OnChange = func() {}
	}
	if cfg.OnOutcome == nil {
		cfg.OnOutcome = func(Outcome) {}
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return &Workflow{api: api, store: store, cfg: cfg}
}

// Block validates the requested MAC and asks the backend to block it.
func (w *Workflow) Block(ctx context.Context, req Request) Outcome {
	target := req.MAC
	if req.Source == SourceField {
		target = w.store.Input()
	}
	target = strings.TrimSpace(target)

	out := Outcome{Action: "block", MAC: target, Source: req.Source.String()}
	autoClear := req.Source == SourceField

	if !mac.IsValid(target) {
		out.Err = ErrInvalidMAC
		out.Result = ResultInvalid
		w.cfg.Logger.Debug().Str("mac", target).Str("source", out.Source).Msg("rejected invalid MAC")
		return w.settle(out, MsgInvalidMAC, state.FeedbackFail, autoClear)
	}

	if err := w.api.Block(ctx, target); err != nil {
		out.Err = err
		out.Result = classify(err)
		text := MsgContactBackend
		if out.Result == ResultBackendError {
			text = MsgBlockFailed
			if msg, ok := backend.Message(err); ok {
				text = msg
			}
		}
		return w.settle(out, text, state.FeedbackFail, autoClear)
	}

	out.Result = ResultSuccess
	w.store.ClearInput()
	if w.store.PanelOpen() {
		w.RefreshPanel(ctx)
	}
	return w.settle(out, "Blocked "+target+" successfully.", state.FeedbackSuccess, autoClear)
}

// Unblock asks the backend to unblock mac. The value is trusted to come
// from a rendered blocklist entry and is not validated again.
func (w *Workflow) Unblock(ctx context.Context, target string) Outcome {
	out := Outcome{Action: "unblock", MAC: target, Source: SourceArgument.String()}

	if err := w.api.Unblock(ctx, target); err != nil {
		out.Err = err
		out.Result = classify(err)
		text := MsgContactBackend
		if out.Result == ResultBackendError {
			text = MsgUnblockFailed
			if msg, ok := backend.Message(err); ok {
				text = unblockErrorPrefix + msg
			}
		}
		return w.settle(out, text, state.FeedbackFail, false)
	}

	out.Result = ResultSuccess
	if w.store.PanelOpen() {
		w.RefreshPanel(ctx)
	}
	return w.settle(out, "Unblocked "+target+" successfully.", state.FeedbackSuccess, false)
}

// TogglePanel shows or hides the blocklist panel, fetching the list when it
// opens. It returns the new visibility.
func (w *Workflow) TogglePanel(ctx context.Context) bool {
	open := w.store.TogglePanel()
	w.cfg.OnChange()
	if open {
		w.RefreshPanel(ctx)
	}
	return open
}

// RefreshPanel re-fetches the blocklist into the store.
func (w *Workflow) RefreshPanel(ctx context.Context) error {
	bl, err := w.api.Blocklist(ctx)
	if err != nil {
		w.cfg.Logger.Warn().Err(err).Msg("loading blocklist failed")
		w.store.SetBlocklistError(err)
		w.cfg.OnChange()
		return err
	}
	w.store.SetBlocklist(bl)
	w.cfg.Metrics.ObserveBlocklist(bl.Total)
	w.cfg.OnChange()
	return nil
}

func (w *Workflow) settle(out Outcome, text string, kind state.FeedbackKind, autoClear bool) Outcome {
	out.Feedback = w.store.SetFeedback(text, kind, autoClear)
	if autoClear {
		id := out.Feedback.ID
		w.cfg.AfterFunc(w.cfg.ClearDelay, func() {
			if w.store.ClearFeedback(id) {
				w.cfg.OnChange()
			}
		})
	}

	w.cfg.Metrics.ObserveAction(out.Action, out.Result)

	entry := audit.Entry{
		Action:  out.Action,
		MAC:     out.MAC,
		Source:  out.Source,
		Result:  out.Result,
		Message: text,
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
		var be *backend.BackendError
		if errors.As(out.Err, &be) {
			entry.StatusCode = be.StatusCode
		}
	}
	w.cfg.Audit.Log(entry)

	var ev *zerolog.Event
	if out.Err != nil && out.Result != ResultInvalid {
		ev = w.cfg.Logger.Warn().Err(out.Err)
	} else {
		ev = w.cfg.Logger.Info()
	}
	ev.Str("action", out.Action).
		Str("mac", out.MAC).
		Str("source", out.Source).
		Str("result", out.Result).
		Msg("blocklist action settled")

	w.cfg.OnChange()
	w.cfg.OnOutcome(out)
	return out
}

func classify(err error) string {
	if backend.IsUnreachable(err) {
		return ResultUnreachable
	}
	return ResultBackendError
}
