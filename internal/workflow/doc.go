// Package workflow drives one identifier through one lookup attempt.
//
// An attempt walks a fixed sequence of steps: search, first captcha gate,
// results table, detail link, second captcha gate and export. Each step
// either advances the attempt's record to the next stage or fails it, and a
// failed attempt is never resumed. The runner package starts the next
// attempt from the beginning with a fresh portal session.
//
// Design decision: Steps follow the Step/Machine shape of a pipeline rather
// than one long function so that each gate is testable on its own with a
// scripted session, and each gets the same logging and failure bookkeeping.
package workflow
