// Package extract pulls the results table out of a portal search page.
package extract
