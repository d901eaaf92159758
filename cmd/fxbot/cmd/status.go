package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the risk status of a running bot",
	Long: `Query a running fxbot server for its current risk state: the
trading-enabled flag, daily/weekly P/L against their limits, and open
position count.

Example:
  fxbot status --server http://localhost:5000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(http.MethodGet, "/api/status", nil)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent trade decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(http.MethodGet, "/api/history", nil)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
}
