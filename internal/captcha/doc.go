// Package captcha turns a captcha image into a decision text.
//
// The solver runs escalating tiers of (variant × mode) recognition passes.
// Every pass is independent: a variant is generated, recognized, and cleaned
// with no state shared between passes, and the cleaned candidates of one tier
// are reduced to a single decision by majority vote.
//
// Design decision: The target code is exactly six characters. Shorter reads
// of four or five characters are kept as candidates because several partial
// reads that agree are still a useful signal, but only a six-character
// decision stops escalation.
package captcha
