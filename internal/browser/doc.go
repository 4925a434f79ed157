// Package browser implements portal.Session on a Chromium instance driven
// through the DevTools protocol with go-rod.
//
// Every session launches its own browser process and kills it on Close, so
// an attempt never inherits cookies, storage or a half-loaded page from the
// attempt before it.
package browser
