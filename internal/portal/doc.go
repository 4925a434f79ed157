// Package portal defines the contract between the lookup workflow and a live
// registry portal.
//
// A Session is one exclusive automation session for one attempt. It is
// opened by a Factory at the start of the attempt and closed when the
// attempt ends, whatever the outcome, so nothing leaks between attempts.
//
// The browser package provides the real implementation; portaltest provides
// a scripted fake.
package portal
