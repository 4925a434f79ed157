// Package portaltest provides a scripted portal.Session for tests.
package portaltest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/cinfetch/internal/portal"
)

// Method names, as recorded in Fake.Calls and used by FailOn.
const (
	SubmitSearch   = "SubmitSearch"
	WaitCaptcha    = "WaitCaptcha"
	CaptureCaptcha = "CaptureCaptcha"
	SubmitCaptcha  = "SubmitCaptcha"
	WaitResults    = "WaitResults"
	ActivateLink   = "ActivateLink"
	OpenExportMenu = "OpenExportMenu"
	ExportAll      = "ExportAll"
	PageHTML       = "PageHTML"
	Screenshot     = "Screenshot"
)

// Fake is a scripted portal session. The zero value walks every stage
// successfully with an empty captcha image and an empty page.
type Fake struct {
	// Captchas are returned by successive CaptureCaptcha calls; the last one
	// repeats.
	Captchas [][]byte

	// ResultsHTML is returned by WaitResults and PageHTML.
	ResultsHTML string

	// Accept decides SubmitCaptcha. Nil accepts everything.
	Accept func(text string) bool

	// Links lists the strategies under which ActivateLink finds the link.
	// Nil means LinkByAttribute only.
	Links []portal.LinkStrategy

	// PNG is returned by Screenshot.
	PNG []byte

	mu        sync.Mutex
	fail      map[string]map[int]error
	count     map[string]int
	calls     []string
	submitted []string
	search    string
	closed    int
}

// FailOn makes the nth (1-based) call of method return err.
func (f *Fake) FailOn(method string, n int, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail == nil {
		f.fail = map[string]map[int]error{}
	}
	if f.fail[method] == nil {
		f.fail[method] = map[int]error{}
	}
	f.fail[method][n] = err
	return f
}

// Calls returns the methods called, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Submitted returns the captcha texts submitted, in order.
func (f *Fake) Submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submitted...)
}

// Searched returns the identifier passed to SubmitSearch.
func (f *Fake) Searched() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.search
}

// Closed reports how many times Close was called.
func (f *Fake) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Fake) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed > 0 {
		return portal.ErrSessionClosed
	}
	if f.count == nil {
		f.count = map[string]int{}
	}
	f.count[method]++
	f.calls = append(f.calls, method)
	return f.fail[method][f.count[method]]
}

// SubmitSearch implements portal.Session.
func (f *Fake) SubmitSearch(_ context.Context, identifier string) error {
	if err := f.enter(SubmitSearch); err != nil {
		return err
	}
	f.mu.Lock()
	f.search = identifier
	f.mu.Unlock()
	return nil
}

// WaitCaptcha implements portal.Session.
func (f *Fake) WaitCaptcha(_ context.Context, _ time.Duration) error {
	return f.enter(WaitCaptcha)
}

// CaptureCaptcha implements portal.Session.
func (f *Fake) CaptureCaptcha(_ context.Context) ([]byte, error) {
	if err := f.enter(CaptureCaptcha); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Captchas) == 0 {
		return nil, nil
	}
	i := f.count[CaptureCaptcha] - 1
	if i >= len(f.Captchas) {
		i = len(f.Captchas) - 1
	}
	return f.Captchas[i], nil
}

// SubmitCaptcha implements portal.Session.
func (f *Fake) SubmitCaptcha(_ context.Context, text string) (bool, error) {
	if err := f.enter(SubmitCaptcha); err != nil {
		return false, err
	}
	f.mu.Lock()
	f.submitted = append(f.submitted, text)
	accept := f.Accept
	f.mu.Unlock()
	if accept == nil {
		return true, nil
	}
	return accept(text), nil
}

// WaitResults implements portal.Session.
func (f *Fake) WaitResults(_ context.Context, _ time.Duration) (string, error) {
	if err := f.enter(WaitResults); err != nil {
		return "", err
	}
	return f.ResultsHTML, nil
}

// ActivateLink implements portal.Session.
func (f *Fake) ActivateLink(_ context.Context, identifier string, strategy portal.LinkStrategy) error {
	if err := f.enter(ActivateLink); err != nil {
		return err
	}
	links := f.Links
	if links == nil {
		links = []portal.LinkStrategy{portal.LinkByAttribute}
	}
	for _, s := range links {
		if s == strategy {
			return nil
		}
	}
	return fmt.Errorf("link %q by %s: %w", identifier, strategy, portal.ErrElementNotFound)
}

// OpenExportMenu implements portal.Session.
func (f *Fake) OpenExportMenu(_ context.Context) error {
	return f.enter(OpenExportMenu)
}

// ExportAll implements portal.Session.
func (f *Fake) ExportAll(_ context.Context) error {
	return f.enter(ExportAll)
}

// PageHTML implements portal.Session.
func (f *Fake) PageHTML(_ context.Context) (string, error) {
	if err := f.enter(PageHTML); err != nil {
		return "", err
	}
	return f.ResultsHTML, nil
}

// Screenshot implements portal.Session.
func (f *Fake) Screenshot(_ context.Context) ([]byte, error) {
	if err := f.enter(Screenshot); err != nil {
		return nil, err
	}
	return f.PNG, nil
}

// Close implements portal.Session.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// ErrOpen is returned by a Factory whose Build returns a nil session.
var ErrOpen = errors.New("portaltest: open failed")

// Factory opens Fake sessions built by Build, one per NewSession call.
type Factory struct {
	// Build returns the session for the nth (1-based) call. A nil session
	// makes NewSession fail with ErrOpen.
	Build func(n int) *Fake

	mu       sync.Mutex
	sessions []*Fake
	opened   int
}

// NewSession implements portal.Factory.
func (f *Factory) NewSession(_ context.Context) (portal.Session, error) {
	f.mu.Lock()
	f.opened++
	n := f.opened
	f.mu.Unlock()

	s := &Fake{}
	if f.Build != nil {
		s = f.Build(n)
	}
	if s == nil {
		return nil, ErrOpen
	}
	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()
	return s, nil
}

// Opened returns the number of NewSession calls.
func (f *Factory) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

// Sessions returns the sessions handed out, in order.
func (f *Factory) Sessions() []*Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Fake(nil), f.sessions...)
}
