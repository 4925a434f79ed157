package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/nao1215/cinfetch/internal/portal"
	"github.com/nao1215/cinfetch/internal/workflow"
)

// Settle are fixed pauses that give the portal's scripts time to react.
type Settle struct {
	// Load follows navigation to the search page.
	Load time.Duration

	// Search follows submitting the search.
	Search time.Duration

	// Scroll follows scrolling a control into view.
	Scroll time.Duration

	// Submit follows submitting a captcha, before the page is checked for
	// the rejection message.
	Submit time.Duration
}

// DefaultSettle returns the pauses used against the live portal.
func DefaultSettle() Settle {
	return Settle{
		Load:   3 * time.Second,
		Search: 2 * time.Second,
		Scroll: 500 * time.Millisecond,
		Submit: 3 * time.Second,
	}
}

// Options configure a Launcher.
type Options struct {
	// Bin is the browser binary. Empty means the launcher's lookup.
	Bin string

	// ControlURL connects to an already running browser instead of
	// launching one. The browser then outlives the session.
	ControlURL string

	// Headless runs the browser without a window.
	Headless bool

	// NoSandbox disables the Chromium sandbox, for containers.
	NoSandbox bool

	// DownloadDir receives portal exports. Empty leaves the browser default.
	DownloadDir string

	// Selectors locate the portal controls.
	Selectors portal.Selectors

	// NavigationTimeout bounds page loads.
	NavigationTimeout time.Duration

	// ElementTimeout bounds lookups of controls that should already exist.
	ElementTimeout time.Duration

	// ExportTimeout bounds the wait for each export control.
	ExportTimeout time.Duration

	Settle Settle
}

// DefaultOptions returns options for a headless browser on the live portal.
func DefaultOptions() Options {
	return Options{
		Headless:          true,
		Selectors:         portal.DefaultSelectors(),
		NavigationTimeout: 60 * time.Second,
		ElementTimeout:    10 * time.Second,
		ExportTimeout:     15 * time.Second,
		Settle:            DefaultSettle(),
	}
}

// Launcher opens browser sessions on the portal search page. It implements
// portal.Factory.
type Launcher struct {
	opts   Options
	sleep  workflow.Sleeper
	logger *slog.Logger
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) LauncherOption {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// WithSleeper replaces the settle pause implementation.
func WithSleeper(sleep workflow.Sleeper) LauncherOption {
	return func(l *Launcher) {
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// NewLauncher creates a Launcher. Empty selector fields take their defaults.
func NewLauncher(opts Options, lopts ...LauncherOption) *Launcher {
	opts.Selectors = opts.Selectors.Merge(portal.DefaultSelectors())
	l := &Launcher{opts: opts, sleep: workflow.Sleep}
	for _, o := range lopts {
		o(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// NewSession implements portal.Factory. It starts a browser, opens an
// incognito page on the search URL and waits for it to load.
func (l *Launcher) NewSession(ctx context.Context) (portal.Session, error) {
	s := &Session{opts: l.opts, sleep: l.sleep, logger: l.logger}

	controlURL := l.opts.ControlURL
	if controlURL == "" {
		launch := launcher.New().
			Headless(l.opts.Headless).
			NoSandbox(l.opts.NoSandbox).
			Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		if l.opts.Bin != "" {
			launch = launch.Bin(l.opts.Bin)
		}
		u, err := launch.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		s.launch = launch
		controlURL = u
	}
	l.logger.Debug("browser launched", "control_url", controlURL)

	s.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := s.browser.Connect(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	incognito, err := s.browser.Incognito()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	s.incognito = incognito

	if dir := l.opts.DownloadDir; dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("create download dir: %w", err)
		}
		err := proto.BrowserSetDownloadBehavior{
			Behavior:         proto.BrowserSetDownloadBehaviorBehaviorAllow,
			BrowserContextID: incognito.BrowserContextID,
			DownloadPath:     dir,
		}.Call(s.browser)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("set download dir: %w", err)
		}
	}

	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.page = page

	if err := s.open(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
