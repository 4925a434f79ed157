package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/nao1215/cinfetch/internal/portal"
	"github.com/nao1215/cinfetch/internal/workflow"
)

// Session is a portal.Session on one incognito browser page.
type Session struct {
	opts   Options
	sleep  workflow.Sleeper
	logger *slog.Logger

	launch    *launcher.Launcher
	browser   *rod.Browser
	incognito *rod.Browser
	page      *rod.Page

	closeOnce sync.Once
	closeErr  error
	closed    bool
	mu        sync.Mutex
}

var _ portal.Session = (*Session)(nil)

func (s *Session) open(ctx context.Context) error {
	p := s.page.Context(ctx).Timeout(s.opts.NavigationTimeout)
	defer p.CancelTimeout()
	if err := p.Navigate(s.opts.Selectors.URL); err != nil {
		return classify("navigate", err, portal.ErrNavigationTimeout)
	}
	if err := p.WaitLoad(); err != nil {
		return classify("wait for page load", err, portal.ErrNavigationTimeout)
	}
	return s.sleep(ctx, s.opts.Settle.Load)
}

// live returns the page bound to ctx, or ErrSessionClosed.
func (s *Session) live(ctx context.Context) (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.page == nil {
		return nil, portal.ErrSessionClosed
	}
	return s.page.Context(ctx), nil
}

// element waits up to timeout for selector. Expiry is reported as missing.
func (s *Session) element(ctx context.Context, selector string, timeout time.Duration, expired error) (*rod.Element, error) {
	p, err := s.live(ctx)
	if err != nil {
		return nil, err
	}
	tp := p.Timeout(timeout)
	defer tp.CancelTimeout()
	el, err := tp.Element(selector)
	if err != nil {
		return nil, classify(selector, err, expired)
	}
	return el.Context(ctx), nil
}

func (s *Session) elementX(ctx context.Context, xpath string, timeout time.Duration) (*rod.Element, error) {
	p, err := s.live(ctx)
	if err != nil {
		return nil, err
	}
	tp := p.Timeout(timeout)
	defer tp.CancelTimeout()
	el, err := tp.ElementX(xpath)
	if err != nil {
		return nil, classify(xpath, err, portal.ErrElementNotFound)
	}
	return el.Context(ctx), nil
}

// SubmitSearch implements portal.Session.
func (s *Session) SubmitSearch(ctx context.Context, identifier string) error {
	el, err := s.element(ctx, s.opts.Selectors.SearchInput, s.opts.ElementTimeout, portal.ErrElementNotFound)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("clear search input: %w", err)
	}
	if err := el.Input(identifier); err != nil {
		return fmt.Errorf("type identifier: %w", err)
	}
	if err := el.Type(input.Enter); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	return s.sleep(ctx, s.opts.Settle.Search)
}

// WaitCaptcha implements portal.Session.
func (s *Session) WaitCaptcha(ctx context.Context, timeout time.Duration) error {
	p, err := s.live(ctx)
	if err != nil {
		return err
	}
	tp := p.Timeout(timeout)
	defer tp.CancelTimeout()

	el, err := tp.Element(s.opts.Selectors.CaptchaImage)
	if err != nil {
		return classify("captcha image", err, portal.ErrNavigationTimeout)
	}
	if err := el.WaitVisible(); err != nil {
		return classify("captcha image visible", err, portal.ErrNavigationTimeout)
	}
	return nil
}

// CaptureCaptcha implements portal.Session.
func (s *Session) CaptureCaptcha(ctx context.Context) ([]byte, error) {
	el, err := s.element(ctx, s.opts.Selectors.CaptchaImage, s.opts.ElementTimeout, portal.ErrElementNotFound)
	if err != nil {
		return nil, err
	}
	data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("captcha screenshot: %w", err)
	}
	return data, nil
}

// SubmitCaptcha implements portal.Session.
func (s *Session) SubmitCaptcha(ctx context.Context, text string) (bool, error) {
	field, err := s.element(ctx, s.opts.Selectors.CaptchaInput, s.opts.ElementTimeout, portal.ErrElementNotFound)
	if err != nil {
		return false, err
	}
	if err := field.SelectAllText(); err != nil {
		return false, fmt.Errorf("clear captcha input: %w", err)
	}
	if err := field.Input(text); err != nil {
		return false, fmt.Errorf("type captcha: %w", err)
	}

	submit, err := s.element(ctx, s.opts.Selectors.CaptchaSubmit, s.opts.ElementTimeout, portal.ErrElementNotFound)
	if err != nil {
		return false, err
	}
	if err := s.scrollAndClick(ctx, submit, false); err != nil {
		return false, fmt.Errorf("submit captcha: %w", err)
	}
	if err := s.sleep(ctx, s.opts.Settle.Submit); err != nil {
		return false, err
	}

	p, err := s.live(ctx)
	if err != nil {
		return false, err
	}
	rejected, _, err := p.HasX(s.opts.Selectors.CaptchaErrorXPath)
	if err != nil {
		return false, fmt.Errorf("check captcha result: %w", err)
	}
	return !rejected, nil
}

// WaitResults implements portal.Session.
func (s *Session) WaitResults(ctx context.Context, timeout time.Duration) (string, error) {
	if _, err := s.element(ctx, s.opts.Selectors.ResultsTable, timeout, portal.ErrNavigationTimeout); err != nil {
		return "", err
	}
	return s.PageHTML(ctx)
}

// ActivateLink implements portal.Session.
func (s *Session) ActivateLink(ctx context.Context, identifier string, strategy portal.LinkStrategy) error {
	var el *rod.Element
	var err error
	switch strategy {
	case portal.LinkByAttribute:
		el, err = s.elementX(ctx, s.opts.Selectors.LinkXPathFor(identifier), s.opts.ElementTimeout)
	case portal.LinkByTextMatch:
		el, err = s.matchText(ctx, identifier)
	default:
		err = fmt.Errorf("link strategy %d: %w", int(strategy), portal.ErrElementNotFound)
	}
	if err != nil {
		return err
	}
	// The link is clicked from script; a mouse click may land on an overlay.
	return s.scrollAndClick(ctx, el, true)
}

// matchText scans every link candidate for normalized text equal to identifier.
func (s *Session) matchText(ctx context.Context, identifier string) (*rod.Element, error) {
	p, err := s.live(ctx)
	if err != nil {
		return nil, err
	}
	els, err := p.Elements(s.opts.Selectors.LinkCandidates)
	if err != nil {
		return nil, classify("link candidates", err, portal.ErrElementNotFound)
	}
	want := portal.NormalizeText(identifier)
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			continue
		}
		if portal.NormalizeText(text) == want {
			return el, nil
		}
	}
	return nil, fmt.Errorf("no %s with text %q among %d: %w",
		s.opts.Selectors.LinkCandidates, identifier, len(els), portal.ErrElementNotFound)
}

func (s *Session) scrollAndClick(ctx context.Context, el *rod.Element, script bool) error {
	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	if err := s.sleep(ctx, s.opts.Settle.Scroll); err != nil {
		return err
	}
	if script {
		_, err := el.Eval(`() => this.click()`)
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// OpenExportMenu implements portal.Session.
func (s *Session) OpenExportMenu(ctx context.Context) error {
	el, err := s.elementX(ctx, s.opts.Selectors.ExportButtonXPath, s.opts.ExportTimeout)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// ExportAll implements portal.Session.
func (s *Session) ExportAll(ctx context.Context) error {
	el, err := s.elementX(ctx, s.opts.Selectors.ExportAllXPath, s.opts.ExportTimeout)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// PageHTML implements portal.Session.
func (s *Session) PageHTML(ctx context.Context) (string, error) {
	p, err := s.live(ctx)
	if err != nil {
		return "", err
	}
	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("page html: %w", err)
	}
	return html, nil
}

// Screenshot implements portal.Session.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	p, err := s.live(ctx)
	if err != nil {
		return nil, err
	}
	data, err := p.Screenshot(false, nil)
	if err != nil {
		return nil, fmt.Errorf("page screenshot: %w", err)
	}
	return data, nil
}

// Close implements portal.Session. It closes the page and the browser, and
// kills the browser process if this session launched it.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		var errs []error
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close page: %w", err))
			}
		}
		if s.browser != nil && s.launch != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		} else if s.incognito != nil {
			if err := s.incognito.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close incognito context: %w", err))
			}
		}
		if s.launch != nil {
			s.launch.Kill()
			s.launch.Cleanup()
		}
		s.closeErr = errors.Join(errs...)
		if s.closeErr != nil {
			s.logger.Debug("session closed with errors", "error", s.closeErr)
		}
	})
	return s.closeErr
}

// classify maps rod lookup failures onto the portal error taxonomy: an
// expired deadline becomes expired, a missing element ErrElementNotFound.
func classify(what string, err error, expired error) error {
	var notFound *rod.ElementNotFoundError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", what, expired, err)
	case errors.As(err, &notFound):
		return fmt.Errorf("%s: %w: %w", what, portal.ErrElementNotFound, err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
