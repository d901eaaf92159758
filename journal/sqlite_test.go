package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *SQLite {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func record(id string, received time.Time) Record {
	return Record{
		DecisionID:   id,
		ReceivedAt:   received,
		Instrument:   "EUR_USD",
		Action:       "open_long",
		Source:       "webhook",
		Status:       "filled",
		Units:        100_000,
		Price:        1.0851,
		StopPips:     20,
		RiskFraction: 0.02,
		TradeID:      "t-" + id,
		SettledAt:    received.Add(200 * time.Millisecond),
	}
}

func TestSQLite_AppendAndGet(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t)
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, j.Append(record("d1", now)))

	rec, err := j.GetDecision("d1")
	require.NoError(t, err)
	assert.Equal(t, "EUR_USD", rec.Instrument)
	assert.Equal(t, "filled", rec.Status)
	assert.Equal(t, 100_000.0, rec.Units)
	assert.Equal(t, "t-d1", rec.TradeID)
	assert.True(t, rec.ReceivedAt.Equal(now))

	_, err = j.GetDecision("missing")
	assert.Error(t, err)
}

func TestSQLite_AppendRejection(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t)
	r := record("d1", time.Now().UTC())
	r.Status = "rejected"
	r.Reason = "DAILY_LIMIT_BREACHED"
	r.Detail = "daily P/L -5.20% beyond 5.00% limit"
	r.Units = 0
	r.TradeID = ""
	require.NoError(t, j.Append(r))

	rec, err := j.GetDecision("d1")
	require.NoError(t, err)
	assert.Equal(t, "DAILY_LIMIT_BREACHED", rec.Reason)
	assert.Empty(t, rec.TradeID)
}

func TestSQLite_ListRecent(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t)
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		require.NoError(t, j.Append(record(
			string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))))
	}

	recs, err := j.ListRecent(3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "e", recs[0].DecisionID, "newest first")
	assert.Equal(t, "d", recs[1].DecisionID)
	assert.Equal(t, "c", recs[2].DecisionID)
}

func TestSQLite_ListReceivedBetween(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t)
	base := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, j.Append(record(
			string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour))))
	}

	recs, err := j.ListReceivedBetween(base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, recs, 2, "end bound is exclusive")
	assert.Equal(t, "b", recs[0].DecisionID, "oldest first")
	assert.Equal(t, "c", recs[1].DecisionID)
}
