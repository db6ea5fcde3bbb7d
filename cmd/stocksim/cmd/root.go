package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stocksim",
	Short: "A daily-bar equity backtesting engine and research tool",
	Long: `Stocksim is a deterministic daily backtesting engine for equities.

It provides tools for:
  - Importing instruments and daily bars into a local SQLite database
  - Ranking and filtering daily candidate universes
  - Backtesting pluggable strategies with realistic execution
    (lot sizing, fees, slippage, T+1 settlement)
  - Journaling runs with equity, drawdown and exposure curves`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
