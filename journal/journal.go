// Package journal persists backtest runs, their trades and their result
// curves in SQLite, and renders run reports.
package journal

import (
	"time"

	"github.com/rustyeddy/stocksim/backtest"
)

// Run lifecycle states.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RunRecord mirrors one row of the backtest_runs table. Params holds the
// run's serialized configuration; Summary is populated once the run
// completes.
type RunRecord struct {
	RunID        string
	Strategy     string
	StartDate    string
	EndDate      string
	Status       string
	CreatedAt    time.Time
	Params       []byte
	Summary      backtest.Summary
	ErrorMessage string
}

// Journal records backtest runs.
type Journal interface {
	InsertRun(rec RunRecord) error
	CompleteRun(runID string, res *backtest.Result) error
	FailRun(runID, message string) error
	InsertTrades(runID string, trades []backtest.Trade) error
	Close() error
}
