package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/cinfetch/internal/database"
	"github.com/nao1215/cinfetch/internal/model"
)

// seedLedger creates a ledger holding one finished run with two attempts for
// CIN123, and returns its directory.
func seedLedger(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	ledger, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer ledger.Close()

	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := ledger.StartRun(ctx, "run-1", start, 1); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	attempts := []model.AttemptSummary{
		{
			Attempt: 1, Stage: model.StageFailed, FailedAt: "first_captcha", Error: "captcha rejected",
			Captchas: []model.CaptchaSummary{
				{Gate: "step1", Fingerprint: "aaaa", Text: "AB12", Tier: "exhaustive"},
			},
			StartedAt: start, FinishedAt: start.Add(time.Minute),
		},
		{
			Attempt: 2, Stage: model.StageDone,
			Captchas: []model.CaptchaSummary{
				{Gate: "step1", Fingerprint: "bbbb", Text: "XY99ZZ", Tier: "fast", Confident: true, Accepted: true},
				{Gate: "step2", Fingerprint: "cccc", Text: "QW12ER", Tier: "broad", Confident: true, Accepted: true},
			},
			StartedAt: start.Add(2 * time.Minute), FinishedAt: start.Add(3 * time.Minute),
		},
	}
	for _, a := range attempts {
		if err := ledger.RecordAttempt(ctx, "run-1", "CIN123", a); err != nil {
			t.Fatalf("RecordAttempt() error = %v", err)
		}
	}
	report := &model.RunReport{
		RunID: "run-1", StartedAt: start, FinishedAt: start.Add(3 * time.Minute),
		Lookups: []model.LookupReport{{Identifier: "CIN123", Attempts: attempts, Rows: 1, Done: true}},
	}
	if err := ledger.FinishRun(ctx, report); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}
	return dir
}

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	if cmd.Use != "history [identifier]..." {
		t.Errorf("expected use 'history [identifier]...', got %q", cmd.Use)
	}
	flag := cmd.Flags().Lookup("list-identifiers")
	if flag == nil || flag.Shorthand != "l" {
		t.Error("expected list-identifiers flag with shorthand 'l'")
	}
	for _, name := range []string{"run", "db-dir"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

// TestRunHistory tests printing ledger contents.
func TestRunHistory(t *testing.T) {
	t.Parallel()

	dir := seedLedger(t)
	ledger, err := openLedger(dir)
	if err != nil {
		t.Fatalf("openLedger() error = %v", err)
	}
	t.Cleanup(func() { _ = ledger.Close() })

	t.Run("lists identifiers", func(t *testing.T) {
		var out bytes.Buffer
		if err := runHistory(context.Background(), &out, ledger, historyOptions{list: true}); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}
		if out.String() != "CIN123\n" {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("prints attempts and captchas", func(t *testing.T) {
		var out bytes.Buffer
		opts := historyOptions{identifiers: []string{"CIN123", "CIN999"}}
		if err := runHistory(context.Background(), &out, ledger, opts); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}
		got := out.String()
		for _, want := range []string{
			"CIN123: 2 attempt(s)",
			"run run-1",
			"#1 ",
			"failed at first_captcha: captcha rejected",
			`step1 "AB12"   (exhaustive, short) rejected fp=aaaa`,
			"#2 ",
			`step2 "QW12ER" (broad) accepted fp=cccc`,
			"CIN999: no attempts recorded",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %q in output:\n%s", want, got)
			}
		}
		if strings.Count(got, "run run-1") != 1 {
			t.Errorf("run header repeated:\n%s", got)
		}
	})

	t.Run("prints a run summary", func(t *testing.T) {
		var out bytes.Buffer
		if err := runHistory(context.Background(), &out, ledger, historyOptions{runID: "run-1"}); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}
		got := out.String()
		if !strings.Contains(got, "completed: 1/1") || !strings.Contains(got, "(3m0s)") {
			t.Errorf("unexpected summary:\n%s", got)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		err := runHistory(context.Background(), io.Discard, ledger, historyOptions{runID: "nope"})
		if !errors.Is(err, database.ErrUnknownRun) {
			t.Errorf("expected ErrUnknownRun, got %v", err)
		}
	})
}

// TestRunHistoryCmd tests the history command execution.
func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("requires a selection", func(t *testing.T) {
		t.Parallel()
		cmd := NewHistoryCmd()
		cmd.SetOut(io.Discard)
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing ledger", func(t *testing.T) {
		t.Parallel()
		cmd := NewHistoryCmd()
		cmd.SetOut(io.Discard)
		cmd.SetArgs([]string{"--db-dir", t.TempDir(), "CIN123"})
		if err := cmd.Execute(); !errors.Is(err, errNoLedger) {
			t.Errorf("expected errNoLedger, got %v", err)
		}
	})

	t.Run("reads an existing ledger", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		cmd := NewHistoryCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--db-dir", seedLedger(t), "-l"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "CIN123") {
			t.Errorf("unexpected output %q", out.String())
		}
	})
}
