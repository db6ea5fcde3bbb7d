// Package store persists instruments and daily bars in SQLite and serves
// them to the backtest engine.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/stocksim/backtest"
	"github.com/rustyeddy/stocksim/market"
)

// Store wraps the SQLite market database.
type Store struct {
	db *sql.DB
}

var _ backtest.DataSource = (*Store)(nil)

func NewSQLite(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Instrument is one row of the static instrument table.
type Instrument struct {
	Code     string
	Name     string
	Market   string
	ListDate string
}

// UpsertInstruments replaces instrument rows in one transaction.
func (s *Store) UpsertInstruments(instruments []Instrument) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO stock_basic (ts_code, name, market, list_date)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ins := range instruments {
		if ins.Code == "" {
			return fmt.Errorf("store: instrument with empty ts_code")
		}
		if _, err := stmt.Exec(ins.Code, ins.Name, ins.Market, ins.ListDate); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpsertDaily replaces daily rows in one transaction.
func (s *Store) UpsertDaily(rows []market.DailyRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO daily
		(ts_code, trade_date, open, high, low, close, vol, amount, adj_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if r.Code == "" || r.Date == "" {
			return fmt.Errorf("store: daily row with empty ts_code or trade_date")
		}
		if _, err := stmt.Exec(r.Code, r.Date, r.Open, r.High, r.Low, r.Close, r.Volume, r.Amount, r.AdjFactor); err != nil {
			return err
		}
	}
	return tx.Commit()
}
