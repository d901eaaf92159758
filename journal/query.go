package journal

import (
	"database/sql"
	"fmt"
	"time"
)

const selectCols = `decision_id, received_at, instrument, action, source, status, reason, detail,
	units, price, stop_pips, risk_fraction, trade_id, realized_pl, settled_at`

// GetDecision returns a single journaled decision by ID.
func (j *SQLite) GetDecision(decisionID string) (Record, error) {
	row := j.db.QueryRow(`
		SELECT `+selectCols+`
		FROM decisions
		WHERE decision_id = ?`, decisionID)

	rec, err := scanRecord(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return Record{}, fmt.Errorf("decision %q not found", decisionID)
		}
		return Record{}, err
	}
	return rec, nil
}

// ListRecent returns the latest n decisions, newest first.
func (j *SQLite) ListRecent(n int) ([]Record, error) {
	rows, err := j.db.Query(`
		SELECT `+selectCols+`
		FROM decisions
		ORDER BY received_at DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListReceivedBetween returns decisions received within [start, end), oldest
// first.
func (j *SQLite) ListReceivedBetween(start, end time.Time) ([]Record, error) {
	rows, err := j.db.Query(`
		SELECT `+selectCols+`
		FROM decisions
		WHERE received_at >= ? AND received_at < ?
		ORDER BY received_at ASC`, start, end)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRecord(scan func(...any) error) (Record, error) {
	var rec Record
	err := scan(
		&rec.DecisionID,
		&rec.ReceivedAt,
		&rec.Instrument,
		&rec.Action,
		&rec.Source,
		&rec.Status,
		&rec.Reason,
		&rec.Detail,
		&rec.Units,
		&rec.Price,
		&rec.StopPips,
		&rec.RiskFraction,
		&rec.TradeID,
		&rec.RealizedPL,
		&rec.SettledAt,
	)
	return rec, err
}
