package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fxbot",
	Short: "A risk-gated forex/futures signal execution bot",
	Long: `Fxbot turns external trade signals (TradingView webhooks, manual commands)
into broker orders, behind strict stateful risk controls.

It provides:
  - Risk-based position sizing from account equity and stop distance
  - Per-trade, per-day, per-week, and portfolio-wide risk limits
  - Automatic daily/weekly loss-limit circuit breakers
  - A TradingView webhook receiver and a dashboard API
  - An append-only SQLite decision journal`,
	SilenceUsage: true,
}

// Execute runs the root command tree.
func Execute() error {
	return rootCmd.Execute()
}

var cfgPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "f", "config.yaml", "path to config file")
}
