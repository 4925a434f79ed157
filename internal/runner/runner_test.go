package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/nao1215/cinfetch/internal/model"
	"github.com/nao1215/cinfetch/internal/portal"
	"github.com/nao1215/cinfetch/internal/portal/portaltest"
	"github.com/nao1215/cinfetch/internal/workflow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// searchMachine returns a one-step machine that only submits the search.
func searchMachine() *workflow.Machine {
	m := workflow.New()
	m.AddSteps(workflow.StepFunc("search", model.StageSearchSubmitted, func(ctx context.Context, a *workflow.Attempt) error {
		return a.Session.SubmitSearch(ctx, a.Identifier())
	}))
	return m
}

// failingFirst returns sessions whose search fails for the first n attempts.
func failingFirst(n int) *portaltest.Factory {
	return &portaltest.Factory{Build: func(i int) *portaltest.Fake {
		f := &portaltest.Fake{}
		if i <= n {
			f.FailOn(portaltest.SubmitSearch, 1, portal.ErrElementNotFound)
		}
		return f
	}}
}

type pauses struct {
	mu sync.Mutex
	d  []time.Duration
}

func (p *pauses) sleep(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	p.d = append(p.d, d)
	p.mu.Unlock()
	return ctx.Err()
}

// TestRunOneRetries tests the unbounded retry loop.
func TestRunOneRetries(t *testing.T) {
	t.Parallel()

	const failures = 7
	factory := failingFirst(failures)
	p := &pauses{}
	var seen []int
	r := New(factory, searchMachine,
		WithSleeper(p.sleep),
		WithAttemptCallback(func(a *workflow.Attempt, _ model.AttemptSummary) {
			seen = append(seen, a.Record.Attempt)
		}),
	)

	lookup, err := r.RunOne(context.Background(), "CIN123")
	if err != nil {
		t.Fatalf("RunOne() error = %v", err)
	}
	if !lookup.Done || lookup.AttemptCount() != failures+1 {
		t.Fatalf("unexpected lookup %+v", lookup)
	}

	for i := 1; i < len(seen); i++ {
		if seen[i] != seen[i-1]+1 {
			t.Errorf("attempt counter not strictly increasing: %v", seen)
		}
	}
	if seen[0] != 1 {
		t.Errorf("first attempt is %d", seen[0])
	}

	for i, a := range lookup.Attempts[:failures] {
		if a.Stage != model.StageFailed || a.FailedAt != "search" {
			t.Errorf("attempt %d: unexpected summary %+v", i+1, a)
		}
	}
	if last := lookup.Attempts[failures]; last.Stage != model.StageDone || last.Error != "" {
		t.Errorf("unexpected last summary %+v", last)
	}

	if factory.Opened() != failures+1 {
		t.Errorf("expected %d sessions, got %d", failures+1, factory.Opened())
	}
	sessions := factory.Sessions()
	for i, s := range sessions {
		if s.Closed() != 1 {
			t.Errorf("session %d closed %d times", i+1, s.Closed())
		}
		if diff := cmp.Diff([]string{portaltest.SubmitSearch}, s.Calls()); diff != "" {
			t.Errorf("session %d reused (-want +got):\n%s", i+1, diff)
		}
	}

	want := make([]time.Duration, failures)
	for i := range want {
		want[i] = DefaultDelay
	}
	if diff := cmp.Diff(want, p.d); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
}

// TestRunOneFaults tests that faults become attempt failures.
func TestRunOneFaults(t *testing.T) {
	t.Parallel()

	t.Run("session open failure is retried", func(t *testing.T) {
		t.Parallel()
		factory := &portaltest.Factory{Build: func(i int) *portaltest.Fake {
			if i == 1 {
				return nil
			}
			return &portaltest.Fake{}
		}}
		r := New(factory, searchMachine, WithDelay(0), WithSleeper((&pauses{}).sleep))
		lookup, err := r.RunOne(context.Background(), "CIN1")
		if err != nil {
			t.Fatalf("RunOne() error = %v", err)
		}
		if lookup.AttemptCount() != 2 || lookup.Attempts[0].FailedAt != "open_session" {
			t.Errorf("unexpected lookup %+v", lookup)
		}
	})

	t.Run("panic is recovered and the session closed", func(t *testing.T) {
		t.Parallel()
		factory := &portaltest.Factory{}
		calls := 0
		machine := func() *workflow.Machine {
			m := workflow.New()
			m.AddSteps(workflow.StepFunc("explode", model.StageSearchSubmitted, func(context.Context, *workflow.Attempt) error {
				calls++
				if calls == 1 {
					panic("nil page")
				}
				return nil
			}))
			return m
		}
		r := New(factory, machine, WithSleeper((&pauses{}).sleep))
		lookup, err := r.RunOne(context.Background(), "CIN1")
		if err != nil {
			t.Fatalf("RunOne() error = %v", err)
		}
		if lookup.AttemptCount() != 2 {
			t.Fatalf("expected 2 attempts, got %d", lookup.AttemptCount())
		}
		first := lookup.Attempts[0]
		if first.Stage != model.StageFailed || first.Error == "" {
			t.Errorf("unexpected summary %+v", first)
		}
		for i, s := range factory.Sessions() {
			if s.Closed() != 1 {
				t.Errorf("session %d closed %d times", i+1, s.Closed())
			}
		}
	})
}

// TestRunOneCancellation tests where cancellation is honored.
func TestRunOneCancellation(t *testing.T) {
	t.Parallel()

	t.Run("an attempt in progress is not interrupted", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var stepErr error
		machine := func() *workflow.Machine {
			m := workflow.New()
			m.AddSteps(
				workflow.StepFunc("cancel", model.StageSearchSubmitted, func(context.Context, *workflow.Attempt) error {
					cancel()
					return nil
				}),
				workflow.StepFunc("after", model.StageFirstCaptchaPresented, func(ctx context.Context, _ *workflow.Attempt) error {
					stepErr = ctx.Err()
					return nil
				}),
			)
			return m
		}
		lookup, err := New(&portaltest.Factory{}, machine).RunOne(ctx, "CIN1")
		if err != nil {
			t.Fatalf("RunOne() error = %v", err)
		}
		if stepErr != nil || !lookup.Done {
			t.Errorf("attempt was interrupted: %v, %+v", stepErr, lookup)
		}
	})

	t.Run("cancelled during the delay", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		sleeper := func(context.Context, time.Duration) error {
			cancel()
			return context.Canceled
		}
		factory := failingFirst(100)
		lookup, err := New(factory, searchMachine, WithSleeper(sleeper)).RunOne(ctx, "CIN1")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if lookup.AttemptCount() != 1 || lookup.Done {
			t.Errorf("unexpected lookup %+v", lookup)
		}
		if factory.Sessions()[0].Closed() != 1 {
			t.Error("session not closed")
		}
	})

	t.Run("default sleeper waits out the delay", func(t *testing.T) {
		t.Parallel()
		factory := failingFirst(1)
		r := New(factory, searchMachine, WithDelay(5*time.Millisecond))
		start := time.Now()
		if _, err := r.RunOne(context.Background(), "CIN1"); err != nil {
			t.Fatalf("RunOne() error = %v", err)
		}
		if time.Since(start) < 5*time.Millisecond {
			t.Error("delay was skipped")
		}
	})
}

// TestRun tests sequential processing of identifiers.
func TestRun(t *testing.T) {
	t.Parallel()

	factory := &portaltest.Factory{Build: func(i int) *portaltest.Fake {
		f := &portaltest.Fake{}
		// The second identifier fails once.
		if i == 2 {
			f.FailOn(portaltest.SubmitSearch, 1, portal.ErrNavigationTimeout)
		}
		return f
	}}
	clock := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r := New(factory, searchMachine,
		WithSleeper((&pauses{}).sleep),
		WithClock(func() time.Time { return clock }),
	)

	report, err := r.Run(context.Background(), "run-1", []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.RunID != "run-1" || report.Completed() != 3 || report.TotalAttempts() != 4 {
		t.Errorf("unexpected report %+v", report)
	}

	var searched []string
	for _, s := range factory.Sessions() {
		searched = append(searched, s.Searched())
	}
	want := []string{"A", "", "B", "C"}
	if diff := cmp.Diff(want, searched); diff != "" {
		t.Errorf("search order mismatch (-want +got):\n%s", diff)
	}

	t.Run("cancelled run returns partial report", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		report, err := New(&portaltest.Factory{}, searchMachine).Run(ctx, "run-2", []string{"A", "B"})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(report.Lookups) != 1 || report.Lookups[0].AttemptCount() != 0 {
			t.Errorf("unexpected report %+v", report)
		}
	})
}
