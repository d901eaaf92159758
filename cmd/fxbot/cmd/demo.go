package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxbot/broker"
	"github.com/rustyeddy/fxbot/broker/sim"
	"github.com/rustyeddy/fxbot/engine"
	"github.com/rustyeddy/fxbot/journal"
	"github.com/rustyeddy/fxbot/market"
	"github.com/rustyeddy/fxbot/risk"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the full pipeline against a simulated broker",
	Long: `Run a short demonstration: open a risk-sized EUR_USD position on a
simulated broker, move the price, close, and print the resulting risk state.
No configuration or broker account required.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	brk := sim.NewEngine(broker.Account{
		ID:       "SIM-001",
		Currency: "USD",
		Balance:  100_000,
	})
	brk.SetPrice(market.Price{Instrument: "EUR_USD", Bid: 1.0849, Ask: 1.0851})

	jnl, err := journal.NewSQLite(":memory:")
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jnl.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	eng, err := engine.New(engine.Options{
		Broker:  brk,
		Catalog: market.NewCatalog([]string{"EUR_USD"}, nil),
		Limits: risk.Limits{
			RiskPerTrade:    0.01,
			MaxPositions:    3,
			MaxTotalRisk:    0.05,
			DailyLossLimit:  0.05,
			WeeklyLossLimit: 0.10,
			WeekStart:       time.Monday,
			Location:        time.UTC,
		},
		Journal:           jnl,
		Logger:            logger,
		DefaultStopPips:   20,
		DefaultTargetPips: 40,
	})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	d, err := eng.SubmitSignal(ctx, engine.Signal{
		Action:     engine.OpenLong,
		Instrument: "EUR_USD",
		StopPips:   20,
		Source:     engine.SourceManual,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Open decision: %s", d.Status)
	if d.Status == engine.StatusFilled {
		fmt.Printf(" (%.0f units @ %.4f, risking %.2f%% of equity)", d.Units, d.Price, 100*d.RiskFrac)
	}
	fmt.Println()

	// Move the market 30 pips up and flatten.
	brk.SetPrice(market.Price{Instrument: "EUR_USD", Bid: 1.0879, Ask: 1.0881})

	d, err = eng.SubmitSignal(ctx, engine.Signal{
		Action:     engine.Close,
		Instrument: "EUR_USD",
		Source:     engine.SourceManual,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Close decision: %s (realized P/L: $%.2f)\n", d.Status, d.RealizedPL)

	status, err := eng.RiskStatus(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nRisk status:\n")
	fmt.Printf("  Trading enabled: %v\n", status.TradingEnabled)
	fmt.Printf("  Daily P/L: $%.2f (%.3f%% of equity, limit %.1f%%)\n",
		status.DailyPL, 100*status.DailyFraction, 100*status.DailyLimit)
	fmt.Printf("  Open positions: %d / %d\n", status.OpenPositions, status.MaxPositions)
	return nil
}
