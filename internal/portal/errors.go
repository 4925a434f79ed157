package portal

import "errors"

var (
	// ErrElementNotFound is returned when a required page control is missing.
	ErrElementNotFound = errors.New("element not found")

	// ErrNavigationTimeout is returned when a bounded wait expires.
	ErrNavigationTimeout = errors.New("navigation timeout")

	// ErrSessionClosed is returned by every Session method after Close.
	ErrSessionClosed = errors.New("session closed")
)
