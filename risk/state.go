package risk

import "time"

// State holds the mutable, account-wide risk bookkeeping: the trading-enabled
// flag, daily/weekly realized P/L accumulators, open-position risk, and the
// in-flight reservations of trades accepted but not yet settled.
//
// State is not self-locking. It is owned by one engine, which serializes all
// access behind its own exclusion boundary; nothing else may touch it.
type State struct {
	tradingEnabled bool

	dayPL  float64
	weekPL float64

	lastDayReset  time.Time
	lastWeekReset time.Time

	weekStart time.Weekday
	loc       *time.Location

	// open maps broker trade ID to the position's committed risk fraction.
	open map[string]openPosition
	// reserved maps decision ID to risk fraction held for an in-flight
	// accepted trade. A reservation is converted into an open position on
	// fill or released on broker failure.
	reserved map[string]float64
}

type openPosition struct {
	instrument   string
	riskFraction float64
}

// NewState returns a fresh State with trading enabled and both accumulators
// anchored at the boundaries containing now.
func NewState(weekStart time.Weekday, loc *time.Location, now time.Time) *State {
	if loc == nil {
		loc = time.UTC
	}
	return &State{
		tradingEnabled: true,
		lastDayReset:   startOfDay(now, loc),
		lastWeekReset:  startOfWeek(now, loc, weekStart),
		weekStart:      weekStart,
		loc:            loc,
		open:           make(map[string]openPosition),
		reserved:       make(map[string]float64),
	}
}

// Advance moves the reset boundaries forward if now has crossed them, zeroing
// the corresponding accumulator. It reports which resets occurred. Advance is
// idempotent within a boundary and never touches the trading-enabled flag: a
// disable from a limit breach is sticky until an operator re-enables it.
func (s *State) Advance(now time.Time) (dailyReset, weeklyReset bool) {
	if day := startOfDay(now, s.loc); day.After(s.lastDayReset) {
		s.dayPL = 0
		s.lastDayReset = day
		dailyReset = true
	}
	if week := startOfWeek(now, s.loc, s.weekStart); week.After(s.lastWeekReset) {
		s.weekPL = 0
		s.lastWeekReset = week
		weeklyReset = true
	}
	return dailyReset, weeklyReset
}

func (s *State) TradingEnabled() bool      { return s.tradingEnabled }
func (s *State) SetTradingEnabled(on bool) { s.tradingEnabled = on }

func (s *State) DayPL() float64  { return s.dayPL }
func (s *State) WeekPL() float64 { return s.weekPL }

// OpenPositions returns the count of committed open positions. This mirrors
// broker truth but is the authoritative value the gate reads.
func (s *State) OpenPositions() int { return len(s.open) }

// AggregateRisk is the sum of risk fractions across open positions plus the
// reservations of accepted trades still awaiting their fill.
func (s *State) AggregateRisk() float64 {
	var total float64
	for _, p := range s.open {
		total += p.riskFraction
	}
	for _, frac := range s.reserved {
		total += frac
	}
	return total
}

// Reserve holds a risk fraction for an accepted trade while its order is in
// flight, so a concurrent evaluation cannot spend the same budget twice.
func (s *State) Reserve(decisionID string, riskFraction float64) {
	s.reserved[decisionID] = riskFraction
}

// Release drops a reservation whose order never filled. The attempted trade
// never affected exposure, so nothing else changes.
func (s *State) Release(decisionID string) {
	delete(s.reserved, decisionID)
}

// CommitOpen converts a reservation into a committed open position after the
// broker confirms the fill.
func (s *State) CommitOpen(decisionID, tradeID, instrument string) {
	frac, ok := s.reserved[decisionID]
	if !ok {
		return
	}
	delete(s.reserved, decisionID)
	s.open[tradeID] = openPosition{instrument: instrument, riskFraction: frac}
}

// CommitClose records a confirmed position close: the instrument's committed
// risk is freed and the realized P/L flows into both accumulators.
func (s *State) CommitClose(instrument string, realizedPL float64) {
	for id, p := range s.open {
		if p.instrument == instrument {
			delete(s.open, id)
		}
	}
	s.dayPL += realizedPL
	s.weekPL += realizedPL
}

// RecordPL adds realized P/L to the accumulators without touching position
// bookkeeping, for fills settled outside the engine (e.g. a broker-side stop).
func (s *State) RecordPL(realizedPL float64) {
	s.dayPL += realizedPL
	s.weekPL += realizedPL
}

// Snapshot is a consistent, read-only view of the state, taken atomically at
// the start of a gate evaluation.
type Snapshot struct {
	TradingEnabled bool
	DayPL          float64
	WeekPL         float64
	OpenPositions  int
	AggregateRisk  float64
}

func (s *State) Snapshot() Snapshot {
	return Snapshot{
		TradingEnabled: s.tradingEnabled,
		DayPL:          s.dayPL,
		WeekPL:         s.weekPL,
		OpenPositions:  s.OpenPositions(),
		AggregateRisk:  s.AggregateRisk(),
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func startOfWeek(t time.Time, loc *time.Location, weekStart time.Weekday) time.Time {
	day := startOfDay(t, loc)
	back := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -back)
}
