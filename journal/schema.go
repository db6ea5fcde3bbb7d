// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	id TEXT PRIMARY KEY,
	strategy_name TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	params TEXT,
	summary TEXT,
	equity_curve TEXT,
	drawdown_curve TEXT,
	positions_curve TEXT,
	daily_log TEXT,
	error_message TEXT
);

CREATE TABLE IF NOT EXISTS backtest_trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	ts_code TEXT NOT NULL,
	trade_date TEXT NOT NULL,
	action TEXT NOT NULL,
	qty REAL NOT NULL,
	price REAL NOT NULL,
	fee REAL NOT NULL,
	cash_after REAL NOT NULL,
	reason TEXT
);

CREATE INDEX IF NOT EXISTS idx_backtest_trades_run ON backtest_trades(run_id);
`
