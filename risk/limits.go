package risk

import (
	"fmt"
	"time"
)

// Limits is the immutable set of risk limits the gate enforces. A Limits
// value is built once from configuration and never mutated; a config reload
// produces a fresh value that is swapped in atomically.
type Limits struct {
	// RiskPerTrade is the fraction of equity risked on a single trade.
	RiskPerTrade float64
	// PerInstrument overrides RiskPerTrade for specific instruments.
	PerInstrument map[string]float64

	MaxPositions int
	// MaxTotalRisk caps the sum of risk fractions across open positions.
	MaxTotalRisk float64

	DailyLossLimit  float64
	WeeklyLossLimit float64

	// WeekStart anchors the weekly reset boundary; Location is the timezone
	// both reset boundaries are computed in.
	WeekStart time.Weekday
	Location  *time.Location
}

// RiskFor returns the risk fraction to use for one trade on the given
// instrument.
func (l Limits) RiskFor(instrument string) float64 {
	if r, ok := l.PerInstrument[instrument]; ok {
		return r
	}
	return l.RiskPerTrade
}

// Validate rejects limit sets that could never gate a trade sensibly.
// Called once at startup; a failure here is fatal.
func (l Limits) Validate() error {
	if l.RiskPerTrade <= 0 || l.RiskPerTrade > 1 {
		return fmt.Errorf("risk_per_trade must be in (0, 1], got %v", l.RiskPerTrade)
	}
	for instr, r := range l.PerInstrument {
		if r <= 0 || r > 1 {
			return fmt.Errorf("per-instrument risk for %s must be in (0, 1], got %v", instr, r)
		}
	}
	if l.MaxPositions <= 0 {
		return fmt.Errorf("max_positions must be positive, got %d", l.MaxPositions)
	}
	if l.MaxTotalRisk <= 0 || l.MaxTotalRisk > 1 {
		return fmt.Errorf("max_total_risk must be in (0, 1], got %v", l.MaxTotalRisk)
	}
	if l.DailyLossLimit <= 0 || l.DailyLossLimit > 1 {
		return fmt.Errorf("daily_loss_limit must be in (0, 1], got %v", l.DailyLossLimit)
	}
	if l.WeeklyLossLimit <= 0 || l.WeeklyLossLimit > 1 {
		return fmt.Errorf("weekly_loss_limit must be in (0, 1], got %v", l.WeeklyLossLimit)
	}
	if l.WeeklyLossLimit < l.DailyLossLimit {
		return fmt.Errorf("weekly_loss_limit %v is below daily_loss_limit %v", l.WeeklyLossLimit, l.DailyLossLimit)
	}
	if l.Location == nil {
		return fmt.Errorf("reset timezone is required")
	}
	return nil
}
