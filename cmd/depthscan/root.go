package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for depthscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depthscan",
		Short: "Layered web vulnerability scanner",
		Long: `depthscan crawls web applications from one or more seed URLs, one depth
layer at a time, and checks every page for common web vulnerabilities.

Each page is fetched over HTTP and, when a Chrome or Chromium browser is
installed, rendered headless. Passive detectors, active probes and trained
classifiers report findings per page. Results are written to a fresh
results directory as text and JSON.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewSignaturesCmd())
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
