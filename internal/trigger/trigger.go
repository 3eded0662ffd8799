// Package trigger starts remote scrape runs behind a cooldown gate.
package trigger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lunch-cli/pkg/github"
)

var (
	// ErrCooldown is wrapped by CooldownError.
	ErrCooldown = eris.New("trigger: cooldown active")
	// ErrNotConfigured means no automation credentials are available.
	ErrNotConfigured = eris.New("trigger: automation not configured")
	// ErrDispatch means the automation system refused or failed the request.
	ErrDispatch = eris.New("trigger: dispatch failed")
)

// CooldownError rejects a trigger inside the cooldown window.
type CooldownError struct {
	Remaining time.Duration
	Cooldown  time.Duration
}

func (e *CooldownError) Error() string {
	return CooldownMessage(e.Cooldown, e.Remaining)
}

func (e *CooldownError) Unwrap() error { return ErrCooldown }

// RemainingMinutes rounds d up to whole minutes.
func RemainingMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(float64(d) / float64(time.Minute)))
}

// CooldownMessage is the user-facing rejection text.
func CooldownMessage(cooldown, remaining time.Duration) string {
	n := RemainingMinutes(remaining)
	unit := "minute"
	if n > 1 {
		unit = "minutes"
	}
	return fmt.Sprintf("Can't refresh more often than every %d minutes. Please wait %d more %s.",
		RemainingMinutes(cooldown), n, unit)
}

// Dispatcher starts one remote scrape run.
type Dispatcher interface {
	Dispatch(ctx context.Context) error
	// Message is the acknowledgement shown once the run is started.
	Message() string
}

// WorkflowDispatcher starts a GitHub Actions workflow with an empty
// restaurant input, which scrapes every restaurant.
type WorkflowDispatcher struct {
	Client  github.Client
	Request github.DispatchRequest
}

func (d *WorkflowDispatcher) Dispatch(ctx context.Context) error {
	req := d.Request
	if req.Inputs == nil {
		req.Inputs = map[string]string{"restaurant": ""}
	}
	return d.Client.DispatchWorkflow(ctx, req)
}

func (d *WorkflowDispatcher) Message() string {
	return "Scraping started. This might take up to 4 minutes."
}

// SimulatedDispatcher accepts every trigger without contacting anything.
// Used in development when no token is configured.
type SimulatedDispatcher struct{}

func (SimulatedDispatcher) Dispatch(context.Context) error {
	zap.L().Info("trigger: simulating workflow dispatch")
	return nil
}

func (SimulatedDispatcher) Message() string {
	return "Scraping started (simulated in development). This might take up to 4 minutes."
}

// Result acknowledges an accepted trigger.
type Result struct {
	Message   string
	StartedAt time.Time
}

// Trigger owns the cooldown gate and the dispatcher it guards.
type Trigger struct {
	gate       Gate
	dispatcher Dispatcher
	cooldown   time.Duration
	now        func() time.Time
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithClock overrides the time source used for admission and StartedAt.
func WithClock(now func() time.Time) Option {
	return func(t *Trigger) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates a Trigger. A nil dispatcher makes every admitted call fail
// with ErrNotConfigured.
func New(gate Gate, dispatcher Dispatcher, cooldown time.Duration, opts ...Option) *Trigger {
	t := &Trigger{gate: gate, dispatcher: dispatcher, cooldown: cooldown, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fire admits the call through the gate and dispatches a run. The slot is
// given back when the run could not be started.
func (t *Trigger) Fire(ctx context.Context) (*Result, error) {
	now := t.now()
	ok, remaining, err := t.gate.Admit(ctx, now)
	if err != nil {
		return nil, eris.Wrap(err, "trigger: admit")
	}
	if !ok {
		zap.L().Info("trigger: rejected during cooldown", zap.Duration("remaining", remaining))
		return nil, &CooldownError{Remaining: remaining, Cooldown: t.cooldown}
	}

	if t.dispatcher == nil {
		t.release(ctx)
		zap.L().Error("trigger: no automation token configured")
		return nil, ErrNotConfigured
	}
	if err := t.dispatcher.Dispatch(ctx); err != nil {
		t.release(ctx)
		zap.L().Error("trigger: dispatch failed", zap.Error(err))
		return nil, eris.Wrap(ErrDispatch, err.Error())
	}

	zap.L().Info("trigger: scrape run started")
	return &Result{Message: t.dispatcher.Message(), StartedAt: now.UTC()}, nil
}

func (t *Trigger) release(ctx context.Context) {
	if err := t.gate.Release(ctx); err != nil {
		zap.L().Warn("trigger: release gate", zap.Error(err))
	}
}
