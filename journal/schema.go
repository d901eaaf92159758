// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS decisions (
	decision_id TEXT PRIMARY KEY,
	received_at DATETIME NOT NULL,
	instrument TEXT NOT NULL,
	action TEXT NOT NULL,
	source TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT NOT NULL,
	detail TEXT NOT NULL,
	units REAL NOT NULL,
	price REAL NOT NULL,
	stop_pips REAL NOT NULL,
	risk_fraction REAL NOT NULL,
	trade_id TEXT NOT NULL,
	realized_pl REAL NOT NULL,
	settled_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_received ON decisions(received_at);
CREATE INDEX IF NOT EXISTS idx_decisions_instrument ON decisions(instrument);
`
