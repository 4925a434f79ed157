package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/cinfetch/internal/captcha"
	"github.com/nao1215/cinfetch/internal/database"
	"github.com/nao1215/cinfetch/internal/imaging"
	"github.com/nao1215/cinfetch/internal/imaging/imagingtest"
	"github.com/nao1215/cinfetch/internal/model"
	"github.com/nao1215/cinfetch/internal/ocr"
)

// fixedSolver returns a solver whose backend reads text from every variant.
func fixedSolver(text string) *captcha.Solver {
	return captcha.NewSolver(ocr.EngineFunc(func(context.Context, imaging.Variant, ocr.Mode) (string, error) {
		return text, nil
	}))
}

// TestNewSolveCmd tests the solve command creation.
func TestNewSolveCmd(t *testing.T) {
	t.Parallel()

	cmd := NewSolveCmd()
	if cmd.Use != "solve [image]..." {
		t.Errorf("expected use 'solve [image]...', got %q", cmd.Use)
	}
	if err := cmd.Args(cmd, nil); err == nil {
		t.Error("expected at least one image to be required")
	}
	if cmd.Flags().Lookup("no-ledger") == nil {
		t.Error("expected no-ledger flag")
	}
}

// TestRunSolve tests solving local image files.
func TestRunSolve(t *testing.T) {
	t.Parallel()

	png := imagingtest.CaptchaPNG(t, "AB12CD")
	imagePath := filepath.Join(t.TempDir(), "captcha.png")
	if err := os.WriteFile(imagePath, png, 0600); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	t.Run("prints the tier decisions", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		if err := runSolve(context.Background(), &out, fixedSolver("AB12CD"), nil, []string{imagePath}, discardLogger()); err != nil {
			t.Fatalf("runSolve() error = %v", err)
		}
		got := out.String()
		for _, want := range []string{
			"png 120x40",
			imaging.Fingerprint(png),
			"fast",
			`"AB12CD" votes=1/1`,
			"result: AB12CD (tier fast, confident)",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %q in output:\n%s", want, got)
			}
		}
		if strings.Contains(got, "broad") {
			t.Error("a confident fast tier must not escalate")
		}
	})

	t.Run("short decisions escalate and are marked", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		if err := runSolve(context.Background(), &out, fixedSolver("AB12"), nil, []string{imagePath}, discardLogger()); err != nil {
			t.Fatalf("runSolve() error = %v", err)
		}
		got := out.String()
		if !strings.Contains(got, "exhaustive") {
			t.Errorf("expected every tier to run:\n%s", got)
		}
		if !strings.Contains(got, "result: AB12 (tier exhaustive, short)") {
			t.Errorf("expected short result:\n%s", got)
		}
	})

	t.Run("no candidate", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		if err := runSolve(context.Background(), &out, fixedSolver("!!"), nil, []string{imagePath}, discardLogger()); err != nil {
			t.Fatalf("runSolve() error = %v", err)
		}
		if !strings.Contains(out.String(), "result: no candidate") {
			t.Errorf("unexpected output:\n%s", out.String())
		}
	})

	t.Run("reports earlier submissions of the same image", func(t *testing.T) {
		t.Parallel()
		ledger, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer ledger.Close()

		ctx := context.Background()
		now := time.Now()
		if err := ledger.StartRun(ctx, "run-1", now, 1); err != nil {
			t.Fatalf("StartRun() error = %v", err)
		}
		summary := model.AttemptSummary{
			Attempt: 1, Stage: model.StageFailed, FailedAt: "first_captcha",
			Captchas:  []model.CaptchaSummary{{Gate: "step1", Fingerprint: imaging.Fingerprint(png), Text: "AB12CD", Tier: "fast"}},
			StartedAt: now, FinishedAt: now,
		}
		if err := ledger.RecordAttempt(ctx, "run-1", "CIN123", summary); err != nil {
			t.Fatalf("RecordAttempt() error = %v", err)
		}

		var out bytes.Buffer
		if err := runSolve(ctx, &out, fixedSolver("AB12CD"), ledger, []string{imagePath}, discardLogger()); err != nil {
			t.Fatalf("runSolve() error = %v", err)
		}
		if !strings.Contains(out.String(), "submitted 1 time(s)") {
			t.Errorf("expected ledger count in output:\n%s", out.String())
		}
	})

	t.Run("keeps going after a bad file", func(t *testing.T) {
		t.Parallel()
		bad := filepath.Join(t.TempDir(), "notes.txt")
		if err := os.WriteFile(bad, []byte("not an image"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		missing := filepath.Join(t.TempDir(), "missing.png")

		var out bytes.Buffer
		err := runSolve(context.Background(), &out, fixedSolver("AB12CD"), nil, []string{bad, missing, imagePath}, discardLogger())
		if err == nil {
			t.Fatal("expected error")
		}
		got := out.String()
		if !strings.Contains(got, bad+":") || !strings.Contains(got, missing+":") {
			t.Errorf("expected both failures reported:\n%s", got)
		}
		if !strings.Contains(got, "result: AB12CD") {
			t.Errorf("expected the good image to be solved:\n%s", got)
		}
	})
}
