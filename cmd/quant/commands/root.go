package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Insider-signal ranking backtester",
	Long: `quant ranks US equities on clustered insider buying and backtests a
daily top-N entry strategy against historical prices.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant backtest run --from 2023-01-01 --to 2023-12-31
  go run ./cmd/quant backtest sweep --from 2023-01-01 --to 2023-12-31
  go run ./cmd/quant signals
  go run ./cmd/quant api`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML file (overrides env defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
