package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/cinfetch/internal/browser"
	"github.com/nao1215/cinfetch/internal/portal"
	"github.com/nao1215/cinfetch/internal/runner"
	"github.com/nao1215/cinfetch/internal/workflow"
)

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "cinfetch"

	// DefaultDelay is the pause between a failed attempt and the next one.
	DefaultDelay = runner.DefaultDelay
)

// Config holds all configuration options for a run.
// This struct is populated from CLI flags and the configuration file and
// passed through the application rather than held in global state.
//
// Design decision: We use a single flat struct for the run options. Only
// the portal layout and timeouts, which users tune together, live in the
// nested File.
type Config struct {
	// Identifiers are looked up in order.
	Identifiers []string

	// ListFile is a file with one identifier per line.
	ListFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .cinfetch in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// File holds the portal selectors and timeouts from the config file.
	File *File

	// OutputDir receives the <identifier>_basic.csv files.
	OutputDir string

	// DownloadDir receives the portal exports.
	DownloadDir string

	// ArtifactDir receives captcha images, page HTML and screenshots.
	// Empty disables artifacts unless Debug is set.
	ArtifactDir string

	// Debug enables artifacts in the default cache directory.
	Debug bool

	// DBDir is the directory of the attempt ledger.
	DBDir string

	// NoLedger disables the attempt ledger.
	NoLedger bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable format.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	MarkdownReport bool

	// ReportFile is the output file path for the report. Empty means stdout.
	ReportFile string

	// Delay is the pause between attempts.
	Delay time.Duration

	// Headless runs the browser without a window.
	Headless bool

	// NoSandbox disables the Chromium sandbox.
	NoSandbox bool

	// BrowserBin is the browser binary. Empty means auto-detection.
	BrowserBin string

	// ControlURL connects to a running browser instead of launching one.
	ControlURL string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (directories, delay,
// headless mode).
func NewConfig() *Config {
	return &Config{
		OutputDir:   ".",
		DownloadDir: DefaultDownloadDir(),
		DBDir:       XDGDataDir(),
		Delay:       DefaultDelay,
		Headless:    true,
	}
}

// XDGDataDir returns the XDG data directory for cinfetch.
// On Linux: ~/.local/share/cinfetch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for cinfetch.
// On Linux: ~/.config/cinfetch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for cinfetch.
// On Linux: ~/.cache/cinfetch
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// DefaultDownloadDir returns the user's download directory.
func DefaultDownloadDir() string {
	if xdg.UserDirs.Download != "" {
		return xdg.UserDirs.Download
	}
	return filepath.Join(xdg.Home, "Downloads")
}

// Artifacts returns the artifact directory, or "" when artifacts are off.
func (c *Config) Artifacts() string {
	if c.ArtifactDir != "" {
		return c.ArtifactDir
	}
	if c.Debug {
		return filepath.Join(XDGCacheDir(), "artifacts")
	}
	return ""
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Identifiers) == 0 {
		return ErrNoIdentifier
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.File != nil {
		return c.File.Validate()
	}
	return nil
}

// BrowserOptions returns the launcher options for this configuration.
func (c *Config) BrowserOptions() browser.Options {
	opts := browser.DefaultOptions()
	opts.Bin = c.BrowserBin
	opts.ControlURL = c.ControlURL
	opts.Headless = c.Headless
	opts.NoSandbox = c.NoSandbox
	opts.DownloadDir = c.DownloadDir
	if c.File != nil {
		opts.Selectors = c.File.Portal.Merge(portal.DefaultSelectors())
		c.File.Timeouts.applyBrowser(&opts)
	}
	return opts
}

// Timings returns the workflow timings for this configuration.
func (c *Config) Timings() workflow.Timings {
	t := workflow.DefaultTimings()
	if c.File != nil {
		c.File.Timeouts.applyWorkflow(&t)
	}
	return t
}

// RetryDelay returns the pause between attempts. A delay in the config file
// applies unless the flag changed it.
func (c *Config) RetryDelay() time.Duration {
	if c.Delay == DefaultDelay && c.File != nil && c.File.Timeouts.Delay > 0 {
		return c.File.Timeouts.Delay
	}
	return c.Delay
}

// AddIdentifiers appends identifiers, trimming blanks and dropping
// duplicates while keeping first-seen order.
func (c *Config) AddIdentifiers(ids ...string) {
	seen := make(map[string]bool, len(c.Identifiers))
	for _, id := range c.Identifiers {
		seen[id] = true
	}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		c.Identifiers = append(c.Identifiers, id)
	}
}
