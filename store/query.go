package store

import (
	"sort"
	"strings"

	"github.com/rustyeddy/stocksim/market"
)

// SQLite caps bound variables per statement, so IN (...) queries run in
// batches of this many codes.
const codeBatchSize = 500

// TradeDatesForCodes returns the sorted distinct trade dates on which at
// least one of the codes has a bar, within [start, end].
func (s *Store) TradeDatesForCodes(codes []string, start, end string) ([]string, error) {
	seen := make(map[string]bool)
	for _, batch := range batches(codes, codeBatchSize) {
		query := `
			SELECT DISTINCT trade_date FROM daily
			WHERE trade_date >= ? AND trade_date <= ?
			AND ts_code IN (` + placeholders(len(batch)) + `)`

		args := append([]interface{}{start, end}, codeArgs(batch)...)
		rows, err := s.db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var date string
			if err := rows.Scan(&date); err != nil {
				rows.Close()
				return nil, err
			}
			seen[date] = true
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	out := make([]string, 0, len(seen))
	for date := range seen {
		out = append(out, date)
	}
	sort.Strings(out)
	return out, nil
}

// DailyForCodes returns raw daily rows for the codes within [start, end],
// ordered by code then date.
func (s *Store) DailyForCodes(codes []string, start, end string) ([]market.DailyRow, error) {
	var out []market.DailyRow
	for _, batch := range batches(codes, codeBatchSize) {
		query := `
			SELECT ts_code, trade_date, open, high, low, close, vol, amount, adj_factor
			FROM daily
			WHERE trade_date >= ? AND trade_date <= ?
			AND ts_code IN (` + placeholders(len(batch)) + `)
			ORDER BY ts_code ASC, trade_date ASC`

		args := append([]interface{}{start, end}, codeArgs(batch)...)
		rows, err := s.db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var r market.DailyRow
			if err := rows.Scan(&r.Code, &r.Date, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume, &r.Amount, &r.AdjFactor); err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, r)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Date < out[j].Date
	})
	return out, nil
}

// LastAdjFactors returns the most recent positive adjustment factor at or
// before asOfDate per code. Codes with no known factor are absent.
func (s *Store) LastAdjFactors(codes []string, asOfDate string) (map[string]float64, error) {
	out := make(map[string]float64, len(codes))
	for _, batch := range batches(codes, codeBatchSize) {
		// SQLite resolves bare columns against the MAX() row per group.
		query := `
			SELECT ts_code, adj_factor, MAX(trade_date)
			FROM daily
			WHERE trade_date <= ? AND adj_factor > 0
			AND ts_code IN (` + placeholders(len(batch)) + `)
			GROUP BY ts_code`

		args := append([]interface{}{asOfDate}, codeArgs(batch)...)
		rows, err := s.db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var code, date string
			var factor float64
			if err := rows.Scan(&code, &factor, &date); err != nil {
				rows.Close()
				return nil, err
			}
			out[code] = factor
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

func batches(codes []string, size int) [][]string {
	var out [][]string
	for len(codes) > size {
		out = append(out, codes[:size])
		codes = codes[size:]
	}
	if len(codes) > 0 {
		out = append(out, codes)
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func codeArgs(codes []string) []interface{} {
	args := make([]interface{}, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	return args
}
