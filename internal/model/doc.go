// Package model defines the data structures shared by cinfetch packages.
//
// This package contains the following main types:
//   - Stage: The workflow stages a lookup moves through
//   - LookupRecord: The state of one identifier during one attempt
//   - Table: A parsed results table with header-aligned rows
//   - RunReport: The history of a whole run, used by reports and the ledger
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The workflow, runner, database and report packages all need
// these types, so centralizing them prevents import cycles.
//
// The report types are serializable to JSON for report output.
package model
