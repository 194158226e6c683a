// Package cmd implements the command-line interface for eventscout.
// It provides the root command and subcommands for running the event
// discovery pipeline.
package cmd

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gmodebadze/eventscout/cmd/crawl"
	"github.com/gmodebadze/eventscout/cmd/schedule"
	"github.com/gmodebadze/eventscout/cmd/serve"
	"github.com/gmodebadze/eventscout/cmd/sources"
)

var rootCmd = &cobra.Command{
	Use:   "eventscout",
	Short: "Multi-source event discovery and normalization pipeline",
	Long: `eventscout crawls event listings from multiple sites, extracts
per-event details through a cascading set of strategies, and emits a
deduplicated snapshot of canonical events.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to viper.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default eventscout.yml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(sources.Command())
	rootCmd.AddCommand(schedule.Command())
	rootCmd.AddCommand(serve.Command())
}
