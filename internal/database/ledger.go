package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/cinfetch/internal/model"
)

// FileName is the ledger file name inside the database directory.
const FileName = "cinfetch.db"

// Ledger provides SQLite-based storage for run and attempt history.
//
// Design decision: One ledger file holds every run. The history command
// looks up an identifier across runs, which would need a file scan if each
// run had its own database.
type Ledger struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Ledger behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Ledger in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Ledger, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	l := &Ledger{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := l.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return l, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.dbPath
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (l *Ledger) createTables() error {
	schema := `
	-- One row per invocation of the fetch command
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		identifiers INTEGER DEFAULT 0,
		completed INTEGER DEFAULT 0
	);

	-- Every attempt, successful or not
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		identifier TEXT NOT NULL,
		attempt INTEGER NOT NULL,
		stage TEXT NOT NULL,
		failed_at TEXT,
		error TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		UNIQUE(run_id, identifier, attempt)
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_identifier ON attempts(identifier);
	CREATE INDEX IF NOT EXISTS idx_attempts_stage ON attempts(stage);

	-- Every captcha submitted during an attempt
	CREATE TABLE IF NOT EXISTS captchas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attempt_id INTEGER NOT NULL REFERENCES attempts(id),
		gate TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		text TEXT NOT NULL,
		tier TEXT,
		confident INTEGER NOT NULL,
		accepted INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_captchas_attempt ON captchas(attempt_id);
	CREATE INDEX IF NOT EXISTS idx_captchas_fingerprint ON captchas(fingerprint);

	-- Final state of each identifier in a run
	CREATE TABLE IF NOT EXISTS lookups (
		run_id TEXT NOT NULL,
		identifier TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		row_count INTEGER NOT NULL,
		done INTEGER NOT NULL,
		PRIMARY KEY(run_id, identifier)
	);
	`

	_, err := l.db.ExecContext(context.Background(), schema)
	return err
}

// StartRun records the start of a run.
func (l *Ledger) StartRun(ctx context.Context, runID string, startedAt time.Time, identifiers int) error {
	query := `
	INSERT INTO runs (run_id, started_at, identifiers)
	VALUES (?, ?, ?)
	`
	if _, err := l.db.ExecContext(ctx, query, runID, formatTimestamp(startedAt), identifiers); err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// FinishRun stores the final state of a run and of each of its lookups.
func (l *Ledger) FinishRun(ctx context.Context, report *model.RunReport) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	UPDATE runs SET finished_at = ?, completed = ?
	WHERE run_id = ?
	`, formatTimestamp(report.FinishedAt), report.Completed(), report.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: run %s", ErrUnknownRun, report.RunID)
	}

	for _, lookup := range report.Lookups {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO lookups (run_id, identifier, attempts, row_count, done)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, identifier) DO UPDATE SET
			attempts = excluded.attempts,
			row_count = excluded.row_count,
			done = excluded.done
		`, report.RunID, lookup.Identifier, lookup.AttemptCount(), lookup.Rows, lookup.Done)
		if err != nil {
			return fmt.Errorf("failed to store lookup %s: %w", lookup.Identifier, err)
		}
	}

	return tx.Commit()
}

// RecordAttempt stores one attempt and its captcha submissions.
func (l *Ledger) RecordAttempt(ctx context.Context, runID, identifier string, s model.AttemptSummary) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO attempts (run_id, identifier, attempt, stage, failed_at, error, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, identifier, s.Attempt, s.Stage.String(), s.FailedAt, s.Error,
		formatTimestamp(s.StartedAt), formatTimestamp(s.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	attemptID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get attempt id: %w", err)
	}

	for _, c := range s.Captchas {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO captchas (attempt_id, gate, fingerprint, text, tier, confident, accepted)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`, attemptID, c.Gate, c.Fingerprint, c.Text, c.Tier, c.Confident, c.Accepted)
		if err != nil {
			return fmt.Errorf("failed to insert captcha: %w", err)
		}
	}

	return tx.Commit()
}

// AttemptEntry is a stored attempt.
type AttemptEntry struct {
	// ID is the row ID of the attempt.
	ID int64

	// RunID is the run the attempt belongs to.
	RunID string

	// Identifier is the identifier looked up.
	Identifier string

	// Summary is the attempt as the runner reported it.
	Summary model.AttemptSummary
}

// History returns every stored attempt for identifier, oldest first.
// It returns an empty slice if the identifier was never looked up.
func (l *Ledger) History(ctx context.Context, identifier string) ([]AttemptEntry, error) {
	rows, err := l.db.QueryContext(ctx, `
	SELECT id, run_id, identifier, attempt, stage, failed_at, error, started_at, finished_at
	FROM attempts
	WHERE identifier = ?
	ORDER BY started_at, id
	`, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	entries := []AttemptEntry{}
	for rows.Next() {
		var e AttemptEntry
		var stage, startedAt, finishedAt string
		var failedAt, errText sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Identifier, &e.Summary.Attempt, &stage,
			&failedAt, &errText, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		st, err := model.ParseStage(stage)
		if err != nil {
			return nil, fmt.Errorf("attempt %d: %w", e.ID, err)
		}
		e.Summary.Stage = st
		e.Summary.FailedAt = failedAt.String
		e.Summary.Error = errText.String
		e.Summary.StartedAt = parseTimestamp(startedAt)
		e.Summary.FinishedAt = parseTimestamp(finishedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Captchas are loaded after the cursor is closed; the pool has one connection.
	rows.Close()

	for i := range entries {
		captchas, err := l.captchas(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Summary.Captchas = captchas
	}
	return entries, nil
}

func (l *Ledger) captchas(ctx context.Context, attemptID int64) ([]model.CaptchaSummary, error) {
	rows, err := l.db.QueryContext(ctx, `
	SELECT gate, fingerprint, text, tier, confident, accepted
	FROM captchas
	WHERE attempt_id = ?
	ORDER BY id
	`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get captchas: %w", err)
	}
	defer rows.Close()

	var out []model.CaptchaSummary
	for rows.Next() {
		var c model.CaptchaSummary
		var tier sql.NullString
		if err := rows.Scan(&c.Gate, &c.Fingerprint, &c.Text, &tier, &c.Confident, &c.Accepted); err != nil {
			return nil, fmt.Errorf("failed to scan captcha: %w", err)
		}
		c.Tier = tier.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// FingerprintCount returns how many submissions used an image with the given
// fingerprint. The portal serving the same image twice shows up here.
func (l *Ledger) FingerprintCount(ctx context.Context, fingerprint string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM captchas WHERE fingerprint = ?
	`, fingerprint).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count fingerprint: %w", err)
	}
	return n, nil
}

// ListIdentifiers returns every identifier with at least one attempt.
func (l *Ledger) ListIdentifiers(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `
	SELECT DISTINCT identifier FROM attempts
	ORDER BY identifier
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list identifiers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RunEntry summarizes a stored run.
type RunEntry struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Identifiers int
	Completed   int
}

// Finished reports whether the run was closed with FinishRun.
func (r RunEntry) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// GetRun returns the run with the given ID, or nil if there is none.
func (l *Ledger) GetRun(ctx context.Context, runID string) (*RunEntry, error) {
	var r RunEntry
	var startedAt string
	var finishedAt sql.NullString
	err := l.db.QueryRowContext(ctx, `
	SELECT run_id, started_at, finished_at, identifiers, completed
	FROM runs WHERE run_id = ?
	`, runID).Scan(&r.RunID, &startedAt, &finishedAt, &r.Identifiers, &r.Completed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	r.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		r.FinishedAt = parseTimestamp(finishedAt.String)
	}
	return &r, nil
}

// formatTimestamp stores times in UTC with nanoseconds so that text order
// matches time order.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
