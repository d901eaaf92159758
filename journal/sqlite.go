package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) Append(r Record) error {
	_, err := j.db.Exec(`
		INSERT INTO decisions
		(decision_id, received_at, instrument, action, source, status, reason, detail,
		 units, price, stop_pips, risk_fraction, trade_id, realized_pl, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.DecisionID, r.ReceivedAt, r.Instrument, r.Action, r.Source,
		r.Status, r.Reason, r.Detail,
		r.Units, r.Price, r.StopPips, r.RiskFraction,
		r.TradeID, r.RealizedPL, r.SettledAt,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
