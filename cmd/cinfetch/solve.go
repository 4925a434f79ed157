package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/cinfetch/internal/captcha"
	"github.com/nao1215/cinfetch/internal/config"
	"github.com/nao1215/cinfetch/internal/database"
	"github.com/nao1215/cinfetch/internal/imaging"
	"github.com/nao1215/cinfetch/internal/log"
	"github.com/nao1215/cinfetch/internal/ocr/tesseract"
)

// NewSolveCmd creates the solve command.
func NewSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve [image]...",
		Short: "Run the captcha solver on local image files",
		Long: `Solve runs the tiered OCR ensemble on captcha images saved on disk and
prints what every tier decided.

Use it to check a Tesseract installation, or to replay captchas kept with
cinfetch fetch --artifacts. When the ledger exists, solve also prints how
often the same image was submitted during earlier runs.

Examples:
  # Solve one captcha
  cinfetch solve captcha.png

  # Solve every kept captcha of an identifier
  cinfetch solve artifacts/captcha_U12345MH2000PTC123456_*.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSolveCmd,
	}

	cmd.Flags().Bool("no-ledger", false,
		"Do not look images up in the ledger")

	return cmd
}

// runSolveCmd executes the solve command.
func runSolveCmd(cmd *cobra.Command, args []string) error {
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))

	noLedger, err := cmd.Flags().GetBool("no-ledger")
	if err != nil {
		return err
	}

	var ledger *database.Ledger
	if !noLedger {
		ledger, err = openLedger(config.XDGDataDir())
		switch {
		case errors.Is(err, errNoLedger):
			logger.Debug("no ledger to look images up in")
		case err != nil:
			return err
		default:
			defer ledger.Close()
		}
	}

	solver := captcha.NewSolver(
		tesseract.New(tesseract.WithLogger(logger)),
		captcha.WithSolverLogger(logger),
	)
	return runSolve(cmd.Context(), cmd.OutOrStdout(), solver, ledger, args, logger)
}

// runSolve solves each image in paths and prints the outcome to w.
// A nil ledger skips the fingerprint lookup. Unreadable images are reported
// and counted; the first of them is returned after every path was tried.
func runSolve(ctx context.Context, w io.Writer, solver *captcha.Solver, ledger *database.Ledger, paths []string, logger *slog.Logger) error {
	var firstErr error
	for _, path := range paths {
		if err := solveFile(ctx, w, solver, ledger, path); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Warn("failed to solve image", "path", path, "error", err)
			fmt.Fprintf(w, "%s: %v\n\n", path, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// solveFile solves one image file.
func solveFile(ctx context.Context, w io.Writer, solver *captcha.Solver, ledger *database.Ledger, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided image path is intentional
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	raw, err := imaging.NewRawImage(data)
	if err != nil {
		return err
	}

	outcome, err := solver.Solve(ctx, raw)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s (%s %dx%d, fingerprint %s)\n",
		path, raw.Format(), raw.Width(), raw.Height(), raw.Fingerprint())
	writeTiers(w, outcome)

	if ledger != nil {
		seen, err := ledger.FingerprintCount(ctx, raw.Fingerprint())
		if err != nil {
			return err
		}
		if seen > 0 {
			fmt.Fprintf(w, "  seen:   submitted %d time(s) in earlier runs\n", seen)
		}
	}
	fmt.Fprintln(w)
	return nil
}

// writeTiers prints one line per tier that ran and the committed decision.
func writeTiers(w io.Writer, outcome captcha.Outcome) {
	for _, tier := range outcome.Tiers {
		decision := "-"
		if tier.Decided {
			decision = fmt.Sprintf("%q votes=%d/%d", tier.Consensus.Text, tier.Consensus.Votes, tier.Consensus.Total)
		}
		fmt.Fprintf(w, "  %-10s passes=%-3d failures=%-3d %s\n",
			tier.Name, len(tier.Attempts), tier.Failures, decision)
	}

	if !outcome.Found() {
		fmt.Fprintln(w, "  result: no candidate")
		return
	}
	notes := []string{"tier " + string(outcome.Tier)}
	if outcome.Confident {
		notes = append(notes, "confident")
	} else {
		notes = append(notes, "short")
	}
	fmt.Fprintf(w, "  result: %s (%s)\n", outcome.Submission(), strings.Join(notes, ", "))
}
