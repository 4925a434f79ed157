// Package runner retries lookups until they succeed.
//
// Each identifier gets attempt after attempt, each on a fresh portal session
// and a fresh workflow machine, with a fixed delay between attempts and no
// cap on their number. Identifiers are processed strictly one after another.
package runner
