package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/cinfetch/internal/artifact"
	"github.com/nao1215/cinfetch/internal/browser"
	"github.com/nao1215/cinfetch/internal/captcha"
	"github.com/nao1215/cinfetch/internal/config"
	"github.com/nao1215/cinfetch/internal/database"
	"github.com/nao1215/cinfetch/internal/log"
	"github.com/nao1215/cinfetch/internal/model"
	"github.com/nao1215/cinfetch/internal/ocr"
	"github.com/nao1215/cinfetch/internal/ocr/tesseract"
	"github.com/nao1215/cinfetch/internal/portal"
	"github.com/nao1215/cinfetch/internal/report"
	"github.com/nao1215/cinfetch/internal/runner"
	"github.com/nao1215/cinfetch/internal/workflow"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [identifier]...",
		Short: "Fetch master data for one or more company identifiers",
		Long: `Fetch looks up each identifier on the MCA master data portal, one at a time.

For every identifier cinfetch:
- Opens a fresh browser session and submits the search
- Solves the first captcha and parses the results table into <identifier>_basic.csv
- Opens the detail page, solves the second captcha and exports all tabs
- Retries from scratch after any failure until the identifier succeeds

Examples:
  # Fetch one identifier
  cinfetch fetch U12345MH2000PTC123456

  # Fetch every identifier listed in a file
  cinfetch fetch --list ids.txt

  # Keep captcha images and page snapshots for debugging
  cinfetch fetch --artifacts ./artifacts U12345MH2000PTC123456

  # Write a JSON run report
  cinfetch fetch --json -o run.json --list ids.txt

Configuration file (.cinfetch) example:
  portal:
    captcha_input: "#customCaptchaInput"
  timeouts:
    first_captcha: 45s
    delay: 20s`,
		Args: cobra.ArbitraryArgs,
		RunE: runFetchCmd,
	}

	// Input flags
	cmd.Flags().StringP("list", "l", "",
		"File with one identifier per line ('#' starts a comment)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cinfetch in current or home directory)")

	// Output flags
	cmd.Flags().String("output-dir", ".",
		"Directory for the <identifier>_basic.csv files")
	cmd.Flags().String("download-dir", config.DefaultDownloadDir(),
		"Directory for the portal exports")
	cmd.Flags().String("artifacts", "",
		"Directory for captcha images, page HTML and screenshots")
	cmd.Flags().Bool("debug", false,
		"Keep artifacts in the cache directory when --artifacts is not set")

	// Retry flags
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Pause between a failed attempt and the next one")
	cmd.Flags().Bool("no-ledger", false,
		"Do not record attempts in the ledger")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the ledger")

	// Browser flags
	cmd.Flags().Bool("headful", false,
		"Show the browser window")
	cmd.Flags().Bool("no-sandbox", false,
		"Disable the Chromium sandbox (needed in some containers)")
	cmd.Flags().String("browser-bin", "",
		"Browser binary (default: auto-detect or download)")
	cmd.Flags().String("control-url", "",
		"DevTools URL of a running browser to use instead of launching one")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// fetchEnv holds the collaborators of a run that reach outside the process.
type fetchEnv struct {
	// sessions opens one portal session per attempt.
	sessions portal.Factory

	// engine recognizes captcha variants.
	engine ocr.Engine

	// sleep is used for the settle pauses and the retry delay.
	sleep workflow.Sleeper

	// stdout receives the report unless it goes to a file.
	stdout io.Writer

	// stderr receives progress lines.
	stderr io.Writer
}

// runFetchCmd executes the fetch command.
func runFetchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, finishing the current attempt...")
			cancel()
		case <-ctx.Done():
		}
	}()

	env := fetchEnv{
		sessions: browser.NewLauncher(cfg.BrowserOptions(), browser.WithLogger(logger)),
		engine:   tesseract.New(tesseract.WithLogger(logger)),
		sleep:    workflow.Sleep,
		stdout:   cmd.OutOrStdout(),
		stderr:   cmd.ErrOrStderr(),
	}
	return runFetch(ctx, cfg, logger, env)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags, the configuration
// file and the identifier list.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.ListFile, err = cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, err
	}

	cfg.DownloadDir, err = cmd.Flags().GetString("download-dir")
	if err != nil {
		return nil, err
	}

	cfg.ArtifactDir, err = cmd.Flags().GetString("artifacts")
	if err != nil {
		return nil, err
	}

	cfg.Debug, err = cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.NoLedger, err = cmd.Flags().GetBool("no-ledger")
	if err != nil {
		return nil, err
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	headful, err := cmd.Flags().GetBool("headful")
	if err != nil {
		return nil, err
	}
	cfg.Headless = !headful

	cfg.NoSandbox, err = cmd.Flags().GetBool("no-sandbox")
	if err != nil {
		return nil, err
	}

	cfg.BrowserBin, err = cmd.Flags().GetString("browser-bin")
	if err != nil {
		return nil, err
	}

	cfg.ControlURL, err = cmd.Flags().GetString("control-url")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, run with the built-in portal layout.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	// Positional identifiers come first, then the list file.
	cfg.AddIdentifiers(args...)
	if cfg.ListFile != "" {
		ids, err := config.LoadIdentifierList(cfg.ListFile)
		if err != nil {
			return nil, err
		}
		cfg.AddIdentifiers(ids...)
	}

	return cfg, nil
}

// runFetch looks up every configured identifier and writes the run report.
// The report is written even when ctx is cancelled part way through.
func runFetch(ctx context.Context, cfg *config.Config, logger *slog.Logger, env fetchEnv) error {
	runID := uuid.NewString()
	logger.Info("starting fetch",
		"run_id", runID,
		"identifiers", len(cfg.Identifiers),
		"output_dir", cfg.OutputDir,
		"ledger", !cfg.NoLedger,
	)

	if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var ledger *database.Ledger
	if !cfg.NoLedger {
		var err error
		ledger, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer ledger.Close()
		logger.Debug("ledger opened", "path", ledger.Path())
	}

	deps := workflow.Deps{
		Solver:  captcha.NewSolver(env.engine, captcha.WithSolverLogger(logger)),
		Tables:  report.NewTableWriter(cfg.OutputDir),
		Timings: cfg.Timings(),
		Sleep:   env.sleep,
		Logger:  logger,
	}
	if dir := cfg.Artifacts(); dir != "" {
		deps.Recorder = artifact.New(dir, artifact.WithLogger(logger))
		logger.Info("keeping artifacts", "dir", dir)
	}

	r := runner.New(env.sessions,
		func() *workflow.Machine { return workflow.DefaultMachine(deps) },
		runner.WithDelay(cfg.RetryDelay()),
		runner.WithSleeper(env.sleep),
		runner.WithLogger(logger),
		runner.WithAttemptCallback(progressPrinter(env.stderr)),
		runner.WithAttemptCallback(attemptRecorder(ledger, runID, logger)),
	)

	// The ledger outlives an interrupt so the interrupted run is recorded.
	ledgerCtx := context.WithoutCancel(ctx)
	if ledger != nil {
		if err := ledger.StartRun(ledgerCtx, runID, time.Now(), len(cfg.Identifiers)); err != nil {
			return err
		}
	}

	runReport, runErr := r.Run(ctx, runID, cfg.Identifiers)

	if ledger != nil {
		if err := ledger.FinishRun(ledgerCtx, runReport); err != nil {
			logger.Error("failed to finish run in ledger", "run_id", runID, "error", err)
		}
	}

	if err := outputReport(cfg, runReport, env.stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("run interrupted after %d of %d identifiers: %w",
			runReport.Completed(), len(cfg.Identifiers), runErr)
	}
	return nil
}

// progressPrinter returns a callback that prints one line per attempt.
func progressPrinter(w io.Writer) runner.AttemptCallback {
	return func(a *workflow.Attempt, s model.AttemptSummary) {
		if s.Succeeded() {
			fmt.Fprintf(w, "%s: attempt %d succeeded in %s\n",
				a.Identifier(), s.Attempt, s.Duration().Round(time.Millisecond))
			return
		}
		fmt.Fprintf(w, "%s: attempt %d failed at %s: %s\n",
			a.Identifier(), s.Attempt, s.FailedAt, s.Error)
	}
}

// attemptRecorder returns a callback that stores each attempt in ledger.
// A nil ledger records nothing. Ledger errors are logged, never returned:
// losing a history row must not stop the run.
func attemptRecorder(ledger *database.Ledger, runID string, logger *slog.Logger) runner.AttemptCallback {
	return func(a *workflow.Attempt, s model.AttemptSummary) {
		if ledger == nil {
			return
		}
		if err := ledger.RecordAttempt(context.Background(), runID, a.Identifier(), s); err != nil {
			logger.Error("failed to record attempt",
				"identifier", a.Identifier(),
				"attempt", s.Attempt,
				"error", err,
			)
		}
	}
}

// outputReport writes the run report in the requested format. With a report
// file, the file gets the requested format and stdout a text summary.
func outputReport(cfg *config.Config, runReport *model.RunReport, stdout io.Writer) error {
	if cfg.ReportFile == "" {
		_, err := reportWriter(cfg, stdout).Write(runReport)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports carry identifiers and captcha answers; keep them owner-only.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := report.NewMultiWriter(reportWriter(cfg, f), report.NewSimpleWriter(stdout))
	if _, err := w.Write(runReport); err != nil {
		return err
	}
	return f.Close()
}

// reportWriter returns the writer for the configured format.
func reportWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

