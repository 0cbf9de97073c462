// Package cmd defines the CLI commands for the partywatch executable.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partywatch",
		Short: "Collects announcements from minor-party websites",
		Long: `partywatch crawls the announcement boards of Korean minor-party
websites, normalizes the heterogeneous listings into dated records, and
optionally publishes them to a Notion database without creating
duplicates.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
