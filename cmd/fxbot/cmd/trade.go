package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	tradeSide     string
	tradeStopPips float64
	tradeTPips    float64
	tradeStop     float64
	tradeTake     float64
	tradeUnits    float64
)

var tradeCmd = &cobra.Command{
	Use:   "trade <instrument>",
	Short: "Submit a manual trade through the full risk pipeline",
	Long: `Submit a manual trade to a running fxbot server. Manual trades are
sized and risk-gated exactly like webhook signals.

Examples:
  fxbot trade EUR_USD --side buy --sl-pips 20 --tp-pips 40
  fxbot trade USD_JPY --side sell --stop 151.20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if tradeSide != "buy" && tradeSide != "sell" {
			return fmt.Errorf("--side must be 'buy' or 'sell'")
		}
		return call(http.MethodPost, "/api/trade", map[string]any{
			"action":      tradeSide,
			"instrument":  args[0],
			"sl_pips":     tradeStopPips,
			"tp_pips":     tradeTPips,
			"stop_loss":   tradeStop,
			"take_profit": tradeTake,
			"units":       tradeUnits,
		})
	},
}

var closeCmd = &cobra.Command{
	Use:   "close <instrument>",
	Short: "Close the open position for an instrument",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(http.MethodPost, "/api/close", map[string]string{
			"instrument": args[0],
		})
	},
}

func init() {
	rootCmd.AddCommand(tradeCmd)
	rootCmd.AddCommand(closeCmd)

	tradeCmd.Flags().StringVar(&tradeSide, "side", "buy", "trade direction: buy or sell")
	tradeCmd.Flags().Float64Var(&tradeStopPips, "sl-pips", 0, "stop-loss distance in pips")
	tradeCmd.Flags().Float64Var(&tradeTPips, "tp-pips", 0, "take-profit distance in pips")
	tradeCmd.Flags().Float64Var(&tradeStop, "stop", 0, "absolute stop-loss price")
	tradeCmd.Flags().Float64Var(&tradeTake, "take", 0, "absolute take-profit price")
	tradeCmd.Flags().Float64Var(&tradeUnits, "units", 0, "explicit size override (still risk-gated)")
}
