package database

import "errors"

var (
	// ErrNotFound is returned when the ledger must exist but does not.
	ErrNotFound = errors.New("ledger not found")

	// ErrUnknownRun is returned when finishing a run that was never started.
	ErrUnknownRun = errors.New("unknown run")
)
