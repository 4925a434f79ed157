package workflow

import (
	"context"

	"github.com/nao1215/cinfetch/internal/captcha"
	"github.com/nao1215/cinfetch/internal/model"
	"github.com/nao1215/cinfetch/internal/portal"
)

// Attempt is the state of one lookup attempt. It is created fresh for every
// attempt and owned by the goroutine running it.
type Attempt struct {
	// Record is the lookup record; the machine advances Record.Stage.
	Record *model.LookupRecord

	// Session is the exclusive portal session for this attempt.
	Session portal.Session

	// Table is the parsed results table, set once ResultsParsed is reached.
	Table model.Table

	// Captchas lists every captcha submitted, rejected ones included.
	Captchas []model.CaptchaSummary

	// Reached is the furthest stage reached. It stays put when the attempt
	// fails, so it tells how far a failed attempt got.
	Reached model.Stage

	// FailedStep names the step that failed. Empty unless Record.Stage is
	// StageFailed.
	FailedStep string
}

// NewAttempt creates an attempt at StageInit.
func NewAttempt(identifier string, number int, session portal.Session) *Attempt {
	return &Attempt{
		Record:  model.NewLookupRecord(identifier, number),
		Session: session,
	}
}

// Tiers returns the solving tier used at each captcha gate passed.
func (a *Attempt) Tiers() []captcha.TierName {
	var tiers []captcha.TierName
	for _, c := range a.Captchas {
		if c.Accepted {
			tiers = append(tiers, captcha.TierName(c.Tier))
		}
	}
	return tiers
}

// Identifier returns the identifier being looked up.
func (a *Attempt) Identifier() string {
	return a.Record.Identifier
}

// Step is one gated stage of the workflow.
type Step interface {
	// Do performs the step. A non-nil error fails the attempt.
	Do(ctx context.Context, a *Attempt) error

	// Name returns the step name for logging and failure reports.
	Name() string

	// Reached returns the stage the attempt is in once Do succeeds.
	Reached() model.Stage
}

// StepFunc builds a Step from a function.
func StepFunc(name string, reached model.Stage, fn func(ctx context.Context, a *Attempt) error) Step {
	return &funcStep{name: name, reached: reached, fn: fn}
}

type funcStep struct {
	name    string
	reached model.Stage
	fn      func(ctx context.Context, a *Attempt) error
}

func (s *funcStep) Do(ctx context.Context, a *Attempt) error { return s.fn(ctx, a) }
func (s *funcStep) Name() string                             { return s.name }
func (s *funcStep) Reached() model.Stage                     { return s.reached }
