// store/schema.go
package store

const Schema = `
CREATE TABLE IF NOT EXISTS stock_basic (
	ts_code TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	market TEXT NOT NULL,
	list_date TEXT
);

CREATE TABLE IF NOT EXISTS daily (
	ts_code TEXT NOT NULL,
	trade_date TEXT NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	vol REAL NOT NULL,
	amount REAL NOT NULL,
	adj_factor REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (ts_code, trade_date)
);

CREATE INDEX IF NOT EXISTS idx_daily_trade_date ON daily(trade_date);
`
