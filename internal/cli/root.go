// Package cli provides the welfaremap command tree.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/welfaremap/backend/config"
	"github.com/welfaremap/backend/internal/logging"
)

// Global flags and state.
var (
	cfgFile   string
	logLevel  string
	logFormat string

	// cfg holds the loaded configuration.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "welfaremap",
	Short: "Map Swiss food products to animal welfare ratings",
	Long: `welfaremap resolves barcoded Swiss food products to the animal
welfare rating of the label program they are sold under.

The reference ratings come from the Essen mit Herz label directory; the
product catalog comes from FoodRepo. A typical run:

  welfaremap scrape      Harvest the label ratings into a reference table
  welfaremap map         Map the product catalog against the table
  welfaremap serve       Serve lookups and classification over HTTP

Credentials are read from the environment or a .env file:
  FOOD_REPO_API_KEY   FoodRepo catalog access (map)
  COHERE_API_KEY      fallback classifier (map, serve)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for commands that don't need it.
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		// Load configuration.
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		// Override with command-line flags.
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if logFormat != "" {
			cfg.Log.Format = logFormat
		}
		logging.Setup(cfg.Log.Level, cfg.Log.Format)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., ./config, /etc/welfaremap)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console, json")

	rootCmd.AddCommand(newScrapeCommand())
	rootCmd.AddCommand(newMapCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newRulesCommand())
	rootCmd.AddCommand(newVersionCommand())
}

// Execute runs the command tree under ctx. Cancelling ctx aborts the
// running command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
