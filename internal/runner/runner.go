package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/cinfetch/internal/model"
	"github.com/nao1215/cinfetch/internal/portal"
	"github.com/nao1215/cinfetch/internal/workflow"
)

// DefaultDelay is the pause between a failed attempt and the next one.
const DefaultDelay = 10 * time.Second

// ErrPanic marks an attempt that panicked.
var ErrPanic = errors.New("attempt panicked")

// AttemptCallback is called after every attempt with its result.
type AttemptCallback func(a *workflow.Attempt, summary model.AttemptSummary)

// Runner drives identifiers through the workflow until each one succeeds.
//
// Design decision: The machine is built by a factory for every attempt, in
// the same way as the session, so no step can carry state from a failed
// attempt into the next one.
type Runner struct {
	// sessions opens one portal session per attempt.
	sessions portal.Factory

	// machineFactory creates a new machine for each attempt.
	machineFactory func() *workflow.Machine

	delay     time.Duration
	sleep     workflow.Sleeper
	now       func() time.Time
	callbacks []AttemptCallback
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithDelay sets the pause between attempts.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithSleeper replaces the pause implementation.
func WithSleeper(s workflow.Sleeper) Option {
	return func(r *Runner) {
		if s != nil {
			r.sleep = s
		}
	}
}

// WithClock replaces the clock used for attempt timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithAttemptCallback adds a callback run after every attempt.
func WithAttemptCallback(cb AttemptCallback) Option {
	return func(r *Runner) {
		if cb != nil {
			r.callbacks = append(r.callbacks, cb)
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a Runner.
func New(sessions portal.Factory, machineFactory func() *workflow.Machine, opts ...Option) *Runner {
	r := &Runner{
		sessions:       sessions,
		machineFactory: machineFactory,
		delay:          DefaultDelay,
		sleep:          workflow.Sleep,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run looks up every identifier in order and returns the run history.
//
// It returns early only when ctx is done; the report then holds the
// identifiers processed so far, the interrupted one included.
func (r *Runner) Run(ctx context.Context, runID string, identifiers []string) (*model.RunReport, error) {
	report := model.NewRunReport(runID, r.now())
	r.logger.Info("starting run",
		"run_id", runID,
		"total_identifiers", len(identifiers),
	)

	for i, id := range identifiers {
		r.logger.Info("looking up identifier",
			"identifier", id,
			"index", i+1,
			"total", len(identifiers),
		)
		lookup, err := r.RunOne(ctx, id)
		report.Lookups = append(report.Lookups, lookup)
		if err != nil {
			report.FinishedAt = r.now()
			return report, err
		}
	}

	report.FinishedAt = r.now()
	r.logger.Info("run complete",
		"run_id", runID,
		"completed", report.Completed(),
		"attempts", report.TotalAttempts(),
		"elapsed", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

// RunOne retries the lookup of identifier until it reaches StageDone.
//
// An attempt, once started, runs to Done or Failed: it gets a context that
// is never cancelled. ctx is honored only before an attempt starts and
// during the delay that follows a failure. The error is ctx.Err() in that
// case and nil otherwise.
func (r *Runner) RunOne(ctx context.Context, identifier string) (model.LookupReport, error) {
	lookup := model.LookupReport{Identifier: identifier}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return lookup, err
		}

		r.logger.Info("starting attempt",
			"identifier", identifier,
			"attempt", attempt,
		)
		a, summary := r.attempt(context.WithoutCancel(ctx), identifier, attempt)
		lookup.Attempts = append(lookup.Attempts, summary)
		for _, cb := range r.callbacks {
			cb(a, summary)
		}

		if summary.Succeeded() {
			lookup.Done = true
			lookup.Rows = len(a.Table.Rows)
			r.logger.Info("lookup completed",
				"identifier", identifier,
				"attempts", attempt,
			)
			return lookup, nil
		}

		r.logger.Warn("attempt failed, retrying",
			"identifier", identifier,
			"attempt", attempt,
			"failed_at", summary.FailedAt,
			"error", summary.Error,
			"delay", r.delay,
		)
		if err := r.sleep(ctx, r.delay); err != nil {
			return lookup, err
		}
	}
}

// attempt runs one attempt on a fresh session. The session is closed on
// every path, including a panic inside a step.
func (r *Runner) attempt(ctx context.Context, identifier string, number int) (a *workflow.Attempt, summary model.AttemptSummary) {
	a = workflow.NewAttempt(identifier, number, nil)
	summary = model.AttemptSummary{Attempt: number, StartedAt: r.now()}

	defer func() {
		if p := recover(); p != nil {
			a.Record.Stage = model.StageFailed
			summary.Error = fmt.Errorf("%w: %v", ErrPanic, p).Error()
			if summary.FailedAt == "" {
				summary.FailedAt = a.FailedStep
			}
			if summary.FailedAt == "" {
				summary.FailedAt = "panic"
			}
			r.logger.Error("attempt panicked",
				"identifier", identifier,
				"attempt", number,
				"panic", p,
			)
		}
		summary.Stage = a.Record.Stage
		summary.FinishedAt = r.now()
		summary.Captchas = append(summary.Captchas, a.Captchas...)
	}()

	session, err := r.sessions.NewSession(ctx)
	if err != nil {
		a.Record.Stage = model.StageFailed
		summary.FailedAt = "open_session"
		summary.Error = err.Error()
		return a, summary
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.logger.Warn("failed to close session", "identifier", identifier, "error", err)
		}
	}()
	a.Session = session

	if err := r.machineFactory().Run(ctx, a); err != nil {
		summary.FailedAt = a.FailedStep
		summary.Error = err.Error()
	}
	return a, summary
}
