package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestState_DailyReset(t *testing.T) {
	t.Parallel()

	day1 := mustTime(t, "2024-03-06T10:00:00Z") // Wednesday
	s := NewState(time.Monday, time.UTC, day1)
	s.CommitClose("EUR_USD", -400)

	// Later the same day: nothing resets.
	daily, weekly := s.Advance(mustTime(t, "2024-03-06T22:00:00Z"))
	assert.False(t, daily)
	assert.False(t, weekly)
	assert.Equal(t, -400.0, s.DayPL())

	// Next day: daily resets, weekly carries.
	daily, weekly = s.Advance(mustTime(t, "2024-03-07T00:00:01Z"))
	assert.True(t, daily)
	assert.False(t, weekly)
	assert.Equal(t, 0.0, s.DayPL())
	assert.Equal(t, -400.0, s.WeekPL())
}

func TestState_WeeklyResetAnchoredToWeekStart(t *testing.T) {
	t.Parallel()

	friday := mustTime(t, "2024-03-08T15:00:00Z")
	s := NewState(time.Monday, time.UTC, friday)
	s.CommitClose("EUR_USD", -900)

	// Saturday and Sunday are still the same trading week.
	_, weekly := s.Advance(mustTime(t, "2024-03-10T12:00:00Z"))
	assert.False(t, weekly)
	assert.Equal(t, -900.0, s.WeekPL())

	// Monday crosses the week boundary.
	_, weekly = s.Advance(mustTime(t, "2024-03-11T00:00:01Z"))
	assert.True(t, weekly)
	assert.Equal(t, 0.0, s.WeekPL())
}

func TestState_AdvanceIdempotentWithinBoundary(t *testing.T) {
	t.Parallel()

	now := mustTime(t, "2024-03-06T10:00:00Z")
	s := NewState(time.Monday, time.UTC, now)
	s.CommitClose("EUR_USD", -150)

	before := s.Snapshot()
	for i := 0; i < 10; i++ {
		daily, weekly := s.Advance(now.Add(time.Duration(i) * time.Minute))
		assert.False(t, daily)
		assert.False(t, weekly)
	}
	assert.Equal(t, before, s.Snapshot())
}

func TestState_ResetNeverReenablesTrading(t *testing.T) {
	t.Parallel()

	day1 := mustTime(t, "2024-03-06T10:00:00Z")
	s := NewState(time.Monday, time.UTC, day1)
	s.CommitClose("EUR_USD", -600)
	s.SetTradingEnabled(false)

	daily, _ := s.Advance(mustTime(t, "2024-03-07T09:00:00Z"))
	assert.True(t, daily)
	assert.Equal(t, 0.0, s.DayPL())
	assert.False(t, s.TradingEnabled(), "disable must be sticky across resets")
}

func TestState_ReservationsCountTowardAggregateRisk(t *testing.T) {
	t.Parallel()

	s := NewState(time.Monday, time.UTC, time.Now())

	s.Reserve("d1", 0.02)
	assert.InDelta(t, 0.02, s.AggregateRisk(), 1e-12)
	assert.Equal(t, 0, s.OpenPositions())

	s.CommitOpen("d1", "t1", "EUR_USD")
	assert.InDelta(t, 0.02, s.AggregateRisk(), 1e-12)
	assert.Equal(t, 1, s.OpenPositions())

	s.Reserve("d2", 0.03)
	assert.InDelta(t, 0.05, s.AggregateRisk(), 1e-12)

	s.Release("d2")
	assert.InDelta(t, 0.02, s.AggregateRisk(), 1e-12)

	s.CommitClose("EUR_USD", 120)
	assert.Equal(t, 0, s.OpenPositions())
	assert.InDelta(t, 0.0, s.AggregateRisk(), 1e-12)
	assert.Equal(t, 120.0, s.DayPL())
}

func TestState_ReleaseUnknownReservationIsNoop(t *testing.T) {
	t.Parallel()

	s := NewState(time.Monday, time.UTC, time.Now())
	s.Release("missing")
	s.CommitOpen("missing", "t1", "EUR_USD")
	assert.Equal(t, 0, s.OpenPositions())
}

func TestState_TimezoneBoundaries(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	// 23:00 New York on March 6 is already March 7 in UTC; the daily boundary
	// must follow the configured zone, not UTC.
	s := NewState(time.Monday, ny, mustTime(t, "2024-03-07T04:00:00Z"))
	s.CommitClose("EUR_USD", -100)

	daily, _ := s.Advance(mustTime(t, "2024-03-07T04:59:00Z")) // still Mar 6 23:59 NY
	assert.False(t, daily)

	daily, _ = s.Advance(mustTime(t, "2024-03-07T05:00:01Z")) // Mar 7 00:00:01 NY
	assert.True(t, daily)
	assert.Equal(t, 0.0, s.DayPL())
}
