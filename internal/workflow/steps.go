package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/cinfetch/internal/captcha"
	"github.com/nao1215/cinfetch/internal/extract"
	"github.com/nao1215/cinfetch/internal/imaging"
	"github.com/nao1215/cinfetch/internal/model"
	"github.com/nao1215/cinfetch/internal/portal"
)

// Solver recognizes captcha images. *captcha.Solver implements it.
type Solver interface {
	Solve(ctx context.Context, raw imaging.RawImage) (captcha.Outcome, error)
}

// SearchStep submits the identifier to the portal search control.
type SearchStep struct{}

// Name returns the step name.
func (SearchStep) Name() string { return "search" }

// Reached returns StageSearchSubmitted.
func (SearchStep) Reached() model.Stage { return model.StageSearchSubmitted }

// Do executes the step.
func (SearchStep) Do(ctx context.Context, a *Attempt) error {
	if err := a.Session.SubmitSearch(ctx, a.Identifier()); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	return nil
}

// CaptchaWaitStep waits for a captcha image to become visible.
//
// Design decision: At the second gate a missing captcha could mean the
// portal skipped it, but it cannot be told apart from a broken page, so a
// missing captcha fails the attempt at both gates.
type CaptchaWaitStep struct {
	Gate    Gate
	Timeout time.Duration
}

// Name returns the step name.
func (s CaptchaWaitStep) Name() string {
	if s.Gate == GateSecond {
		return "second_captcha_wait"
	}
	return "first_captcha_wait"
}

// Reached returns the captcha-presented stage for the gate.
func (s CaptchaWaitStep) Reached() model.Stage {
	if s.Gate == GateSecond {
		return model.StageSecondCaptchaPresented
	}
	return model.StageFirstCaptchaPresented
}

// Do executes the step.
func (s CaptchaWaitStep) Do(ctx context.Context, a *Attempt) error {
	if err := a.Session.WaitCaptcha(ctx, s.Timeout); err != nil {
		return fmt.Errorf("wait for %s captcha: %w", s.Gate, err)
	}
	return nil
}

// CaptchaSolveStep captures the captcha, solves it and submits the answer.
type CaptchaSolveStep struct {
	Gate     Gate
	Solver   Solver
	Recorder Recorder
	Logger   *slog.Logger
}

// Name returns the step name.
func (s CaptchaSolveStep) Name() string {
	if s.Gate == GateSecond {
		return "second_captcha"
	}
	return "first_captcha"
}

// Reached returns the captcha-submitted stage for the gate.
func (s CaptchaSolveStep) Reached() model.Stage {
	if s.Gate == GateSecond {
		return model.StageSecondCaptchaSubmitted
	}
	return model.StageFirstCaptchaSubmitted
}

// Do executes the step. An outcome with no text fails without submitting.
func (s CaptchaSolveStep) Do(ctx context.Context, a *Attempt) error {
	logger := loggerOr(s.Logger)

	data, err := a.Session.CaptureCaptcha(ctx)
	if err != nil {
		return fmt.Errorf("capture %s captcha: %w", s.Gate, err)
	}
	if s.Recorder != nil {
		if err := s.Recorder.RecordCaptcha(a.Identifier(), s.Gate, data); err != nil {
			logger.Warn("failed to record captcha", "identifier", a.Identifier(), "error", err)
		}
	}

	raw, err := imaging.NewRawImage(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCaptchaUnsolvable, err)
	}
	outcome, err := s.Solver.Solve(ctx, raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCaptchaUnsolvable, err)
	}
	if !outcome.Found() {
		return fmt.Errorf("%w: no candidate after %d tiers", ErrCaptchaUnsolvable, outcome.TiersTried())
	}

	text := outcome.Submission()
	logger.Info("captcha solved",
		"identifier", a.Identifier(),
		"gate", s.Gate.String(),
		"tier", string(outcome.Tier),
		"confident", outcome.Confident,
		"votes", outcome.Consensus.Votes,
		"total", outcome.Consensus.Total,
	)

	accepted, err := a.Session.SubmitCaptcha(ctx, text)
	if err != nil {
		return fmt.Errorf("submit %s captcha: %w", s.Gate, err)
	}
	a.Captchas = append(a.Captchas, model.CaptchaSummary{
		Gate:        s.Gate.String(),
		Fingerprint: raw.Fingerprint(),
		Text:        text,
		Tier:        string(outcome.Tier),
		Confident:   outcome.Confident,
		Accepted:    accepted,
	})
	if !accepted {
		return fmt.Errorf("%w: %q at %s", ErrCaptchaRejected, text, s.Gate)
	}
	return nil
}

// ResultsStep waits for the results table, parses it and hands it to Sink.
type ResultsStep struct {
	Timeout time.Duration
	Sink    TableSink
}

// Name returns the step name.
func (ResultsStep) Name() string { return "results" }

// Reached returns StageResultsParsed.
func (ResultsStep) Reached() model.Stage { return model.StageResultsParsed }

// Do executes the step. A table without data rows is not written.
func (s ResultsStep) Do(ctx context.Context, a *Attempt) error {
	page, err := a.Session.WaitResults(ctx, s.Timeout)
	if err != nil {
		return fmt.Errorf("wait for results: %w", err)
	}
	table, err := extract.ParseResultsTable(strings.NewReader(page))
	if err != nil {
		return fmt.Errorf("parse results: %w", err)
	}
	a.Table = table
	if s.Sink != nil && !table.Empty() {
		if err := s.Sink.WriteTable(a.Identifier(), table); err != nil {
			return fmt.Errorf("write results table: %w", err)
		}
	}
	return nil
}

// DetailLinkStep clicks the identifier's detail link, trying each link
// strategy in turn.
type DetailLinkStep struct {
	Settle   time.Duration
	Sleep    Sleeper
	Recorder Recorder
	Logger   *slog.Logger
}

// Name returns the step name.
func (DetailLinkStep) Name() string { return "detail_link" }

// Reached returns StageDetailLinkActivated.
func (DetailLinkStep) Reached() model.Stage { return model.StageDetailLinkActivated }

// Do executes the step.
func (s DetailLinkStep) Do(ctx context.Context, a *Attempt) error {
	logger := loggerOr(s.Logger)
	recordPage(ctx, a, s.Recorder, logger, "before_click", true)

	var errs []error
	for _, strategy := range portal.LinkStrategies() {
		err := a.Session.ActivateLink(ctx, a.Identifier(), strategy)
		if err == nil {
			logger.Debug("detail link activated", "identifier", a.Identifier(), "strategy", strategy.String())
			return sleepOr(s.Sleep)(ctx, s.Settle)
		}
		logger.Debug("detail link strategy failed",
			"identifier", a.Identifier(),
			"strategy", strategy.String(),
			"error", err,
		)
		errs = append(errs, err)
	}
	return fmt.Errorf("activate detail link: %w", errors.Join(errs...))
}

// ExportStep triggers the export-all download.
type ExportStep struct {
	PageSettle time.Duration
	Gap        time.Duration
	Settle     time.Duration
	Sleep      Sleeper
	Recorder   Recorder
	Logger     *slog.Logger
}

// Name returns the step name.
func (ExportStep) Name() string { return "export" }

// Reached returns StageExportTriggered.
func (ExportStep) Reached() model.Stage { return model.StageExportTriggered }

// Do executes the step.
func (s ExportStep) Do(ctx context.Context, a *Attempt) error {
	sleep := sleepOr(s.Sleep)
	if err := sleep(ctx, s.PageSettle); err != nil {
		return err
	}
	recordPage(ctx, a, s.Recorder, loggerOr(s.Logger), "after_captcha2", false)

	if err := a.Session.OpenExportMenu(ctx); err != nil {
		return fmt.Errorf("%w: open export menu: %w", ErrExportFailure, err)
	}
	if err := sleep(ctx, s.Gap); err != nil {
		return err
	}
	if err := a.Session.ExportAll(ctx); err != nil {
		return fmt.Errorf("%w: export all: %w", ErrExportFailure, err)
	}
	return sleep(ctx, s.Settle)
}

// recordPage stores the page HTML and optionally a screenshot. Failures are
// logged only.
func recordPage(ctx context.Context, a *Attempt, rec Recorder, logger *slog.Logger, name string, screenshot bool) {
	if rec == nil {
		return
	}
	if screenshot {
		if png, err := a.Session.Screenshot(ctx); err != nil {
			logger.Warn("failed to take screenshot", "identifier", a.Identifier(), "error", err)
		} else if err := rec.RecordScreenshot(a.Identifier(), name, png); err != nil {
			logger.Warn("failed to record screenshot", "identifier", a.Identifier(), "error", err)
		}
	}
	page, err := a.Session.PageHTML(ctx)
	if err != nil {
		logger.Warn("failed to read page html", "identifier", a.Identifier(), "error", err)
		return
	}
	if err := rec.RecordPage(a.Identifier(), name, page); err != nil {
		logger.Warn("failed to record page", "identifier", a.Identifier(), "error", err)
	}
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func sleepOr(s Sleeper) Sleeper {
	if s == nil {
		return Sleep
	}
	return s
}

// Deps are the collaborators of the standard lookup sequence.
type Deps struct {
	// Solver is required.
	Solver Solver

	// Tables receives the results table. Optional.
	Tables TableSink

	// Recorder keeps debug artifacts. Optional.
	Recorder Recorder

	// Timings default to DefaultTimings when zero.
	Timings Timings

	// Sleep defaults to Sleep.
	Sleep Sleeper

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// DefaultMachine returns a Machine running the standard sequence from
// StageInit to StageDone.
func DefaultMachine(deps Deps, opts ...Option) *Machine {
	if deps.Timings == (Timings{}) {
		deps.Timings = DefaultTimings()
	}
	if deps.Logger != nil {
		opts = append([]Option{WithLogger(deps.Logger)}, opts...)
	}
	tm := deps.Timings

	m := New(opts...)
	m.AddSteps(
		SearchStep{},
		CaptchaWaitStep{Gate: GateFirst, Timeout: tm.FirstCaptcha},
		CaptchaSolveStep{Gate: GateFirst, Solver: deps.Solver, Recorder: deps.Recorder, Logger: m.logger},
		ResultsStep{Timeout: tm.Results, Sink: deps.Tables},
		DetailLinkStep{Settle: tm.DetailSettle, Sleep: deps.Sleep, Recorder: deps.Recorder, Logger: m.logger},
		CaptchaWaitStep{Gate: GateSecond, Timeout: tm.SecondCaptcha},
		CaptchaSolveStep{Gate: GateSecond, Solver: deps.Solver, Recorder: deps.Recorder, Logger: m.logger},
		ExportStep{
			PageSettle: tm.DetailPageSettle,
			Gap:        tm.ExportGap,
			Settle:     tm.ExportSettle,
			Sleep:      deps.Sleep,
			Recorder:   deps.Recorder,
			Logger:     m.logger,
		},
	)
	return m
}
