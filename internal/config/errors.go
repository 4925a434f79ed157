package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoIdentifier is returned when neither arguments nor --list provide
	// an identifier.
	ErrNoIdentifier = errors.New("no identifier specified: provide identifiers as arguments or use --list")

	// ErrInvalidDelay is returned when the delay between attempts is negative.
	ErrInvalidDelay = errors.New("invalid retry delay: must be non-negative")

	// ErrInvalidTimeout is returned when a bounded wait is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidLinkXPath is returned when the configured detail link XPath
	// has no %s placeholder for the identifier.
	ErrInvalidLinkXPath = errors.New("invalid link_xpath: must contain exactly one %s")
)
