package journal

import "time"

// Record is one trade decision as it is journaled: the signal, the outcome,
// and the settlement result when the order reached the broker. The journal is
// append-only and ordered by arrival; it exists for audit and dashboard
// display, never for the engine's own decision making.
type Record struct {
	DecisionID string    `json:"decision_id"`
	ReceivedAt time.Time `json:"received_at"`

	Instrument string `json:"instrument"`
	Action     string `json:"action"`
	Source     string `json:"source"`

	// Status is "rejected", "filled", or "failed".
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`

	Units        float64 `json:"units,omitempty"`
	Price        float64 `json:"price,omitempty"`
	StopPips     float64 `json:"stop_pips,omitempty"`
	RiskFraction float64 `json:"risk_fraction,omitempty"`

	TradeID    string    `json:"trade_id,omitempty"`
	RealizedPL float64   `json:"realized_pl,omitempty"`
	SettledAt  time.Time `json:"settled_at"`
}

// Journal is the append-only trade-history sink.
type Journal interface {
	Append(Record) error
	Close() error
}
