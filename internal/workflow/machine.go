package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/cinfetch/internal/model"
)

// Machine runs the steps of one attempt in order.
//
// Design decision: Transitions are total. Every step either moves the
// record to its Reached stage or to StageFailed, and nothing after a failed
// step runs. There is no branching and no resume.
type Machine struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Machine.
type Option func(*Machine)

// WithLogger sets a custom logger for the machine.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// New creates a Machine with no steps.
func New(opts ...Option) *Machine {
	m := &Machine{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// AddSteps appends steps. Steps run in the order they are added.
func (m *Machine) AddSteps(steps ...Step) {
	m.steps = append(m.steps, steps...)
}

// Run executes every step against a. It returns nil once the record reaches
// StageDone; otherwise the record is left at StageFailed, a.FailedStep names
// the failing step, and the step's error is returned wrapped with its name.
//
// ctx is checked before each step; a done context fails the attempt like any
// other step error.
func (m *Machine) Run(ctx context.Context, a *Attempt) error {
	for _, step := range m.steps {
		if err := ctx.Err(); err != nil {
			return m.fail(a, step, err)
		}

		m.logger.Info("executing step",
			"step", step.Name(),
			"identifier", a.Identifier(),
			"attempt", a.Record.Attempt,
		)

		if err := step.Do(ctx, a); err != nil {
			return m.fail(a, step, err)
		}

		a.Record.Stage = step.Reached()
		a.Reached = a.Record.Stage
		m.logger.Debug("step completed",
			"step", step.Name(),
			"identifier", a.Identifier(),
			"stage", a.Record.Stage.String(),
		)
	}

	a.Record.Stage = model.StageDone
	a.Reached = model.StageDone
	return nil
}

func (m *Machine) fail(a *Attempt, step Step, err error) error {
	m.logger.Warn("step failed",
		"step", step.Name(),
		"identifier", a.Identifier(),
		"attempt", a.Record.Attempt,
		"stage", a.Record.Stage.String(),
		"error", err,
	)
	a.Record.Stage = model.StageFailed
	a.FailedStep = step.Name()
	return fmt.Errorf("%s: %w", step.Name(), err)
}

// StepNames returns the names of all steps in execution order.
func (m *Machine) StepNames() []string {
	names := make([]string, len(m.steps))
	for i, step := range m.steps {
		names[i] = step.Name()
	}
	return names
}
