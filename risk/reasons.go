package risk

// Reason is the structured code attached to every rejected trade decision.
type Reason string

const (
	ReasonNone Reason = ""

	// Validation failures. Signal-specific, never fatal.
	ReasonInvalidStopLoss    Reason = "INVALID_STOP_LOSS"
	ReasonInstrumentDisabled Reason = "INSTRUMENT_DISABLED"

	// Limit breaches. The daily and weekly breaches additionally disable
	// trading account-wide until an operator re-enables it.
	ReasonTradingDisabled     Reason = "TRADING_DISABLED"
	ReasonMaxPositionsReached Reason = "MAX_POSITIONS_REACHED"
	ReasonAggregateRisk       Reason = "AGGREGATE_RISK_EXCEEDED"
	ReasonDailyLimitBreached  Reason = "DAILY_LIMIT_BREACHED"
	ReasonWeeklyLimitBreached Reason = "WEEKLY_LIMIT_BREACHED"
	ReasonSpreadTooWide       Reason = "SPREAD_TOO_WIDE"
)
