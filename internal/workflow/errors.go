package workflow

import (
	"errors"

	"github.com/nao1215/cinfetch/internal/extract"
	"github.com/nao1215/cinfetch/internal/portal"
)

// Attempt failure causes. Session errors are wrapped under these so
// callers can tell them apart with errors.Is.
var (
	// ErrCaptchaUnsolvable is returned when no solving tier produced a candidate.
	ErrCaptchaUnsolvable = errors.New("captcha unsolvable")

	// ErrCaptchaRejected is returned when the portal rejected the submitted text.
	ErrCaptchaRejected = errors.New("captcha rejected")

	// ErrElementNotFound is returned when a required page control is missing.
	ErrElementNotFound = portal.ErrElementNotFound

	// ErrNavigationTimeout is returned when a bounded wait expired.
	ErrNavigationTimeout = portal.ErrNavigationTimeout

	// ErrExportFailure is returned when an export control is missing or unresponsive.
	ErrExportFailure = errors.New("export failure")

	// ErrNoResultsTable is returned when the results page has no recognized table.
	ErrNoResultsTable = extract.ErrNoResultsTable
)
