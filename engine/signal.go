package engine

import (
	"time"

	"github.com/rustyeddy/fxbot/risk"
)

// Action is the trade instruction a signal carries.
type Action string

const (
	OpenLong  Action = "open_long"
	OpenShort Action = "open_short"
	Close     Action = "close"
)

// Source identifies where a signal came from. Manual signals run the exact
// same pipeline as webhook signals; the source is recorded for audit only and
// never exempts a trade from any check.
type Source string

const (
	SourceWebhook Source = "webhook"
	SourceManual  Source = "manual"
)

// Signal is one external trade instruction. Ephemeral: it lives for one
// SubmitSignal call and is persisted only inside the decision journal.
type Signal struct {
	Action     Action
	Instrument string

	// StopLossPrice and TakeProfitPrice are absolute prices; zero means
	// unset. StopPips/TakeProfitPips express the same distances in pips and
	// are used when the absolute prices are unset. When both are absent the
	// configured defaults apply.
	StopLossPrice   float64
	TakeProfitPrice float64
	StopPips        float64
	TakeProfitPips  float64

	// Units overrides the computed position size when non-zero. The trade is
	// still gated on the risk that size implies.
	Units float64

	Source     Source
	ReceivedAt time.Time
}

// Status is the settled state of a processed signal.
type Status string

const (
	// StatusRejected: the gate (or sizing) said no; the broker was never
	// called.
	StatusRejected Status = "rejected"
	// StatusFilled: accepted and confirmed executed by the broker.
	StatusFilled Status = "filled"
	// StatusFailed: accepted but the broker call did not complete. Risk
	// state is left exactly as if the signal never arrived.
	StatusFailed Status = "failed"
)

// Decision is the engine's answer for one signal. Every signal gets exactly
// one, appended to the trade history in arrival order.
type Decision struct {
	ID         string
	Signal     Signal
	Status     Status
	Reason     risk.Reason
	Detail     string
	Units      float64
	Price      float64
	StopPips   float64
	RiskFrac   float64
	TradeID    string
	RealizedPL float64
	SettledAt  time.Time
}
