package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Re-enable trading after a loss-limit breach or manual disable",
	Long: `Re-enable trading on a running fxbot server.

A daily or weekly loss-limit breach disables trading and keeps it disabled
across reset boundaries; this operator command is the only way back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(http.MethodPost, "/api/trading", map[string]bool{"enabled": true})
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable trading immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(http.MethodPost, "/api/trading", map[string]bool{"enabled": false})
	},
}

func init() {
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
}
