package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rustyeddy/stocksim/backtest"
)

// GetRun returns a single run record by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`
		SELECT id, strategy_name, start_date, end_date, status, created_at,
		       COALESCE(params, ''), COALESCE(summary, ''), COALESCE(error_message, '')
		FROM backtest_runs
		WHERE id = ?`, runID)

	rec, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return RunRecord{}, fmt.Errorf("run %q not found", runID)
	}
	return rec, err
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (j *SQLite) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`
		SELECT id, strategy_name, start_date, end_date, status, created_at,
		       COALESCE(params, ''), COALESCE(summary, ''), COALESCE(error_message, '')
		FROM backtest_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTradesByRunID returns a run's trades in insertion order.
func (j *SQLite) ListTradesByRunID(runID string) ([]backtest.Trade, error) {
	rows, err := j.db.Query(`
		SELECT ts_code, trade_date, action, qty, price, fee, cash_after, COALESCE(reason, '')
		FROM backtest_trades
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.Trade
	for rows.Next() {
		var t backtest.Trade
		var action string
		if err := rows.Scan(&t.Code, &t.Date, &action, &t.Qty, &t.Price, &t.Fee, &t.CashAfter, &t.Reason); err != nil {
			return nil, err
		}
		t.Action = backtest.Action(action)
		out = append(out, t)
	}
	return out, rows.Err()
}

// LoadEquityCurve returns a completed run's stored equity curve.
func (j *SQLite) LoadEquityCurve(runID string) ([]backtest.CurvePoint, error) {
	var raw string
	err := j.db.QueryRow(`
		SELECT COALESCE(equity_curve, '') FROM backtest_runs WHERE id = ?`, runID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %q not found", runID)
	}
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var curve []backtest.CurvePoint
	if err := json.Unmarshal([]byte(raw), &curve); err != nil {
		return nil, err
	}
	return curve, nil
}

func scanRun(scan func(dest ...interface{}) error) (RunRecord, error) {
	var rec RunRecord
	var params, summary string
	if err := scan(
		&rec.RunID,
		&rec.Strategy,
		&rec.StartDate,
		&rec.EndDate,
		&rec.Status,
		&rec.CreatedAt,
		&params,
		&summary,
		&rec.ErrorMessage,
	); err != nil {
		return RunRecord{}, err
	}
	rec.Params = []byte(params)
	if summary != "" {
		if err := json.Unmarshal([]byte(summary), &rec.Summary); err != nil {
			return RunRecord{}, err
		}
	}
	return rec, nil
}
