// Package database provides SQLite-based storage for cinfetch.
//
// This package implements the Ledger, which stores:
//   - Runs with their start and finish times
//   - Every lookup attempt with the stage it reached and why it failed
//   - Every captcha submitted, keyed by image fingerprint
//   - The final state of each identifier per run
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode lets the history command read while a run is writing
//
// A lookup can take dozens of attempts against a captcha-gated portal, and
// the ledger is what makes a long run auditable after the fact.
package database
