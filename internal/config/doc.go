// Package config provides configuration structures and utilities for cinfetch.
// It defines the run options set from CLI flags, the YAML file that overrides
// portal selectors and timeouts, and the default directories.
package config
