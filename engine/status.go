package engine

import (
	"context"
	"fmt"
	"math"
)

// RiskStatus is the read-only view of the risk state exposed to dashboards
// and the CLI. Fractions are relative to current account equity.
type RiskStatus struct {
	TradingEnabled bool `json:"trading_enabled"`

	DailyPL        float64 `json:"daily_pl"`
	WeeklyPL       float64 `json:"weekly_pl"`
	DailyFraction  float64 `json:"daily_pl_fraction"`
	WeeklyFraction float64 `json:"weekly_pl_fraction"`

	DailyLimit      float64 `json:"daily_loss_limit"`
	WeeklyLimit     float64 `json:"weekly_loss_limit"`
	DailyRemaining  float64 `json:"daily_limit_remaining"`
	WeeklyRemaining float64 `json:"weekly_limit_remaining"`

	OpenPositions int     `json:"current_positions"`
	MaxPositions  int     `json:"max_positions"`
	AggregateRisk float64 `json:"aggregate_risk"`
	MaxTotalRisk  float64 `json:"max_total_risk"`
}

// RiskStatus reports the current risk state. Reading the status advances the
// lazy reset boundaries like any other state access, but is otherwise free of
// side effects: calling it repeatedly never changes what it returns.
func (e *Engine) RiskStatus(ctx context.Context) (RiskStatus, error) {
	acct, err := e.broker.GetAccount(ctx)
	if err != nil {
		return RiskStatus{}, fmt.Errorf("get account: %w", err)
	}

	limits := e.Limits()

	e.mu.Lock()
	e.state.Advance(e.now())
	snap := e.state.Snapshot()
	e.mu.Unlock()

	st := RiskStatus{
		TradingEnabled: snap.TradingEnabled,
		DailyPL:        snap.DayPL,
		WeeklyPL:       snap.WeekPL,
		DailyLimit:     limits.DailyLossLimit,
		WeeklyLimit:    limits.WeeklyLossLimit,
		OpenPositions:  snap.OpenPositions,
		MaxPositions:   limits.MaxPositions,
		AggregateRisk:  snap.AggregateRisk,
		MaxTotalRisk:   limits.MaxTotalRisk,
	}
	if acct.NAV > 0 {
		st.DailyFraction = snap.DayPL / acct.NAV
		st.WeeklyFraction = snap.WeekPL / acct.NAV
	}
	st.DailyRemaining = math.Max(0, limits.DailyLossLimit-math.Abs(st.DailyFraction))
	st.WeeklyRemaining = math.Max(0, limits.WeeklyLossLimit-math.Abs(st.WeeklyFraction))
	return st, nil
}
