package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/cinfetch/internal/config"
	"github.com/nao1215/cinfetch/internal/database"
	"github.com/nao1215/cinfetch/internal/model"
)

// errNoLedger is returned by commands that read the ledger before any run
// has created it.
var errNoLedger = errors.New("no ledger found (run cinfetch fetch first)")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [identifier]...",
		Short: "Show recorded attempts from the ledger",
		Long: `History shows the attempts stored in the ledger by earlier runs.

For every identifier it prints each attempt in order with the step it failed
at and every captcha submitted: the gate, the recognized text, the solving
tier and whether the portal accepted it.

Examples:
  # List every identifier in the ledger
  cinfetch history --list-identifiers

  # Show the attempts of one identifier
  cinfetch history U12345MH2000PTC123456

  # Show the summary of a run
  cinfetch history --run 6f1c2d9e-0000-4000-8000-000000000000`,
		Args: cobra.ArbitraryArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-identifiers", "l", false,
		"List every identifier with recorded attempts")
	cmd.Flags().String("run", "",
		"Show the summary of the run with this ID")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the ledger")

	return cmd
}

// historyOptions selects what the history command prints.
type historyOptions struct {
	identifiers []string
	list        bool
	runID       string
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var opts historyOptions
	var err error

	opts.list, err = cmd.Flags().GetBool("list-identifiers")
	if err != nil {
		return err
	}

	opts.runID, err = cmd.Flags().GetString("run")
	if err != nil {
		return err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	opts.identifiers = args
	if !opts.list && opts.runID == "" && len(opts.identifiers) == 0 {
		return errors.New("specify identifiers, --run or --list-identifiers")
	}

	ledger, err := openLedger(dbDir)
	if err != nil {
		return err
	}
	defer ledger.Close()

	return runHistory(cmd.Context(), cmd.OutOrStdout(), ledger, opts)
}

// openLedger opens the existing ledger in dir without creating one.
func openLedger(dir string) (*database.Ledger, error) {
	ledger, err := database.Open(dir, database.Options{EnableWAL: true})
	if errors.Is(err, database.ErrNotFound) {
		return nil, errNoLedger
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return ledger, nil
}

// runHistory prints the requested ledger contents to w.
func runHistory(ctx context.Context, w io.Writer, ledger *database.Ledger, opts historyOptions) error {
	if opts.list {
		ids, err := ledger.ListIdentifiers(ctx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(w, "No attempts recorded.")
		}
		for _, id := range ids {
			fmt.Fprintln(w, id)
		}
	}

	if opts.runID != "" {
		if err := printRun(ctx, w, ledger, opts.runID); err != nil {
			return err
		}
	}

	for _, id := range opts.identifiers {
		entries, err := ledger.History(ctx, id)
		if err != nil {
			return err
		}
		printHistory(w, id, entries)
	}
	return nil
}

// printRun prints the summary of one run.
func printRun(ctx context.Context, w io.Writer, ledger *database.Ledger, runID string) error {
	run, err := ledger.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: %s", database.ErrUnknownRun, runID)
	}

	fmt.Fprintf(w, "Run %s\n", run.RunID)
	fmt.Fprintf(w, "  started:   %s\n", run.StartedAt.Local().Format(time.DateTime))
	if run.Finished() {
		fmt.Fprintf(w, "  finished:  %s (%s)\n",
			run.FinishedAt.Local().Format(time.DateTime),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	} else {
		fmt.Fprintln(w, "  finished:  never (interrupted or still running)")
	}
	fmt.Fprintf(w, "  completed: %d/%d\n\n", run.Completed, run.Identifiers)
	return nil
}

// printHistory prints every attempt of one identifier.
func printHistory(w io.Writer, identifier string, entries []database.AttemptEntry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "%s: no attempts recorded\n\n", identifier)
		return
	}

	fmt.Fprintf(w, "%s: %d attempt(s)\n", identifier, len(entries))
	lastRun := ""
	for _, e := range entries {
		if e.RunID != lastRun {
			fmt.Fprintf(w, "  run %s\n", e.RunID)
			lastRun = e.RunID
		}
		s := e.Summary
		status := "done"
		if !s.Succeeded() {
			status = "failed at " + s.FailedAt
			if s.Error != "" {
				status += ": " + s.Error
			}
		}
		fmt.Fprintf(w, "    #%d %s %s\n", s.Attempt, s.StartedAt.Local().Format(time.DateTime), status)
		for _, c := range s.Captchas {
			fmt.Fprintf(w, "        %s\n", captchaLine(c))
		}
	}
	fmt.Fprintln(w)
}

// captchaLine formats one captcha submission.
func captchaLine(c model.CaptchaSummary) string {
	notes := []string{c.Tier}
	if !c.Confident {
		notes = append(notes, "short")
	}
	verdict := "accepted"
	if !c.Accepted {
		verdict = "rejected"
	}
	return fmt.Sprintf("%s %-8q (%s) %s fp=%s", c.Gate, c.Text, strings.Join(notes, ", "), verdict, c.Fingerprint)
}
