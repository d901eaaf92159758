package risk

import (
	"fmt"
	"math"
	"time"
)

// AccountSnapshot is the broker-account view the gate evaluates against.
// Read-only and possibly slightly stale; the caller decides how fresh it
// must be.
type AccountSnapshot struct {
	Currency     string
	Balance      float64
	Equity       float64
	UnrealizedPL float64
	MarginUsed   float64
	MarginAvail  float64
}

// Proposal is one sized trade presented to the gate.
type Proposal struct {
	Instrument string
	// Close marks a position-close request, which bypasses the exposure and
	// loss-limit checks: reducing risk is always permitted while trading is
	// enabled and the instrument is permitted.
	Close bool
	// RiskFraction is the fraction of equity the trade puts at risk.
	RiskFraction float64
	// InstrumentEnabled is the catalog's verdict for this instrument.
	InstrumentEnabled bool
	// SpreadPips is the current bid/ask spread in pips; negative means the
	// snapshot did not provide one and the spread check is skipped.
	SpreadPips float64
	// MaxSpreadPips is the instrument's configured ceiling; zero disables
	// the check.
	MaxSpreadPips float64
}

// Verdict is the gate's accept/reject answer for one proposal.
type Verdict struct {
	Allowed bool
	Reason  Reason
	Detail  string
	// DisabledTrading reports that this evaluation tripped a loss limit and
	// switched trading off as a side effect.
	DisabledTrading bool
}

func reject(reason Reason, format string, args ...any) Verdict {
	return Verdict{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Evaluate runs the ordered limit checks against a single consistent snapshot
// of the risk state; the first failing check wins. Reset boundaries are
// advanced lazily here, at the start of every evaluation, so resets are
// causally ordered with the evaluation that observes them.
//
// Evaluate never mutates position or P/L bookkeeping. Its only side effect is
// switching trading off when a daily or weekly loss limit is found breached;
// that flag stays off until an operator re-enables it.
func Evaluate(p Proposal, limits Limits, acct AccountSnapshot, state *State, now time.Time) Verdict {
	state.Advance(now)
	snap := state.Snapshot()

	if !snap.TradingEnabled {
		return reject(ReasonTradingDisabled, "trading is disabled")
	}
	if !p.InstrumentEnabled {
		return reject(ReasonInstrumentDisabled, "instrument %s is not enabled", p.Instrument)
	}
	if p.Close {
		return Verdict{Allowed: true}
	}

	if snap.OpenPositions >= limits.MaxPositions {
		return reject(ReasonMaxPositionsReached, "open positions %d >= max %d",
			snap.OpenPositions, limits.MaxPositions)
	}
	if total := snap.AggregateRisk + p.RiskFraction; total > limits.MaxTotalRisk {
		return reject(ReasonAggregateRisk, "aggregate risk %.4f would exceed max %.4f",
			total, limits.MaxTotalRisk)
	}

	dayFrac := pnlFraction(snap.DayPL, acct.Equity)
	if math.Abs(dayFrac) >= limits.DailyLossLimit {
		state.SetTradingEnabled(false)
		v := reject(ReasonDailyLimitBreached, "daily P/L %.2f%% hit limit %.2f%%",
			100*dayFrac, 100*limits.DailyLossLimit)
		v.DisabledTrading = true
		return v
	}
	weekFrac := pnlFraction(snap.WeekPL, acct.Equity)
	if math.Abs(weekFrac) >= limits.WeeklyLossLimit {
		state.SetTradingEnabled(false)
		v := reject(ReasonWeeklyLimitBreached, "weekly P/L %.2f%% hit limit %.2f%%",
			100*weekFrac, 100*limits.WeeklyLossLimit)
		v.DisabledTrading = true
		return v
	}

	if p.SpreadPips >= 0 && p.MaxSpreadPips > 0 && p.SpreadPips > p.MaxSpreadPips {
		return reject(ReasonSpreadTooWide, "spread %.1f pips exceeds max %.1f",
			p.SpreadPips, p.MaxSpreadPips)
	}

	return Verdict{Allowed: true}
}

func pnlFraction(pl, equity float64) float64 {
	if equity <= 0 {
		return 0
	}
	return pl / equity
}
