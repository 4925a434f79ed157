// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of portal cookies, session IDs and tokens
//   - Masking of browser DevTools websocket URLs
//   - Configurable log levels with verbose mode support
//
// Lookups run unattended for hours and their logs end up attached to bug
// reports, so values that would let a reader hijack the portal session or
// the controlled browser are masked even in verbose mode.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("browser connected",
//	    "control_url", "ws://127.0.0.1:9222/devtools/browser/4f1c...", // ID masked
//	    "cookie", "JSESSIONID=abc123", // masked
//	)
//
//	slog.SetDefault(logger)
package log
