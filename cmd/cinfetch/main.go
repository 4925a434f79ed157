// Package main provides the entry point for the cinfetch CLI.
//
// cinfetch looks up company master data on the MCA portal. It drives a
// headless browser through the search form and solves both captcha gates
// with an OCR ensemble, retrying each identifier until it succeeds.
//
// Usage:
//
//	cinfetch fetch <identifier>...
//	cinfetch fetch --list <file>
//	cinfetch solve <image>
//
// See --help for all available options.
package main

// main is the entry point for cinfetch.
func main() {
	Execute()
}
