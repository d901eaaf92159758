package risk

import (
	"errors"
	"math"

	"github.com/rustyeddy/fxbot/market"
)

// ErrInvalidStopLoss is returned when a trade cannot be sized because its
// stop-loss distance is zero, negative, or absent. Size is derived by
// dividing through the stop distance, so an undefined stop makes the trade
// unsizable, not merely risky.
var ErrInvalidStopLoss = errors.New("stop-loss distance must be positive")

// SizeInputs are the parameters for sizing one trade.
type SizeInputs struct {
	Equity       float64
	RiskFraction float64
	// StopPips is the stop-loss distance in pips.
	StopPips float64
	// QuoteToAccount converts the instrument's quote currency into the
	// account currency. 1.0 when they match (e.g. EUR_USD in a USD account).
	QuoteToAccount float64
	Meta           market.InstrumentMeta
}

// SizeResult carries the computed order size and the figures it came from.
type SizeResult struct {
	// Units is the position size, floored to the instrument's minimum
	// tradable increment and clamped to its min/max trade size.
	Units float64
	// RiskAmount is the account-currency amount at risk if the stop is hit.
	RiskAmount float64
	// PipValue is the account-currency value of one pip per unit.
	PipValue float64
}

// Size computes position size from equity and stop distance:
//
//	units = (equity * riskFraction) / (stopPips * pipValue)
//
// Pure function: no I/O, no state, deterministic for given inputs.
func Size(in SizeInputs) (SizeResult, error) {
	if in.StopPips <= 0 {
		return SizeResult{}, ErrInvalidStopLoss
	}

	quote := in.QuoteToAccount
	if quote == 0 {
		quote = 1.0
	}

	riskAmt := in.Equity * in.RiskFraction
	pipValue := in.Meta.PipSize() * quote

	units := riskAmt / (in.StopPips * pipValue)

	// Floor to the minimum tradable increment, then clamp to the
	// instrument's trade-size bounds.
	if inc := in.Meta.MinimumTradeSize; inc > 0 {
		units = math.Floor(units/inc) * inc
		units = math.Max(units, inc)
	} else {
		units = math.Floor(units)
	}
	if max := in.Meta.MaximumTradeSize; max > 0 && units > max {
		units = max
	}

	return SizeResult{
		Units:      units,
		RiskAmount: riskAmt,
		PipValue:   pipValue,
	}, nil
}
