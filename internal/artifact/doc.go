// Package artifact stores debug artifacts captured during lookups.
//
// The store keeps every captcha image next to the page HTML and screenshots
// taken around the detail click, so a failed attempt can be replayed offline
// with the solve command.
package artifact
