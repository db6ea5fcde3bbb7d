package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/stocksim/backtest"
)

type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

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

// InsertRun records a new run in the running state.
func (j *SQLite) InsertRun(rec RunRecord) error {
	status := rec.Status
	if status == "" {
		status = StatusRunning
	}
	_, err := j.db.Exec(`
		INSERT INTO backtest_runs
		(id, strategy_name, start_date, end_date, status, created_at, params)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Strategy, rec.StartDate, rec.EndDate,
		status, rec.CreatedAt, string(rec.Params),
	)
	return err
}

// CompleteRun marks a run successful and stores its summary and curves.
func (j *SQLite) CompleteRun(runID string, res *backtest.Result) error {
	summary, err := json.Marshal(res.Summary)
	if err != nil {
		return err
	}
	equity, err := json.Marshal(res.EquityCurve)
	if err != nil {
		return err
	}
	drawdown, err := json.Marshal(res.DrawdownCurve)
	if err != nil {
		return err
	}
	positions, err := json.Marshal(res.PositionsCurve)
	if err != nil {
		return err
	}
	daily, err := json.Marshal(res.DailyLog)
	if err != nil {
		return err
	}

	result, err := j.db.Exec(`
		UPDATE backtest_runs
		SET status = ?, summary = ?, equity_curve = ?, drawdown_curve = ?,
		    positions_curve = ?, daily_log = ?
		WHERE id = ?`,
		StatusSuccess, string(summary), string(equity), string(drawdown),
		string(positions), string(daily), runID,
	)
	if err != nil {
		return err
	}
	return requireRow(result, runID)
}

// FailRun marks a run failed with its error message.
func (j *SQLite) FailRun(runID, message string) error {
	result, err := j.db.Exec(`
		UPDATE backtest_runs SET status = ?, error_message = ? WHERE id = ?`,
		StatusFailed, message, runID,
	)
	if err != nil {
		return err
	}
	return requireRow(result, runID)
}

// InsertTrades appends a run's trade log in one transaction.
func (j *SQLite) InsertTrades(runID string, trades []backtest.Trade) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO backtest_trades
		(run_id, ts_code, trade_date, action, qty, price, fee, cash_after, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.Exec(runID, t.Code, t.Date, string(t.Action), t.Qty, t.Price, t.Fee, t.CashAfter, t.Reason); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func requireRow(result sql.Result, runID string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %q not found", runID)
	}
	return nil
}
