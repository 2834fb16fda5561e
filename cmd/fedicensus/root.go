package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for fedicensus.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fedicensus",
		Short: "Census crawler for federated social networks",
		Long: `fedicensus crawls federated social networks starting from seed instances.
It follows each instance's advertised peers breadth-first, collects user and
activity statistics, and aggregates them into a network-wide census report.

Lemmy and Mastodon instances are supported; other software is recorded as
unsupported rather than failing the crawl.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
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
