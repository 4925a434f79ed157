package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for cinfetch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cinfetch",
		Short: "Fetch company master data from the MCA portal",
		Long: `cinfetch fetches company master data from the MCA portal for one or more
corporate identifiers (CIN, FCRN, LLPIN or FLLPIN).

Each lookup runs in its own browser session. Both captcha gates are solved
with a tiered OCR ensemble, and a failed attempt is retried from scratch
until the identifier succeeds. Every attempt is recorded in a local ledger.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewFetchCmd())
	cmd.AddCommand(NewSolveCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
