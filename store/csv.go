package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rustyeddy/stocksim/market"
)

// ImportInstrumentsCSV loads instrument rows from a CSV file with columns
// ts_code,name,market,list_date. A header row is detected and skipped.
// Returns the number of rows imported.
func (s *Store) ImportInstrumentsCSV(path string) (int, error) {
	records, err := readCSV(path, 4)
	if err != nil {
		return 0, err
	}

	instruments := make([]Instrument, 0, len(records))
	for _, rec := range records {
		instruments = append(instruments, Instrument{
			Code:     rec[0],
			Name:     rec[1],
			Market:   rec[2],
			ListDate: rec[3],
		})
	}
	if err := s.UpsertInstruments(instruments); err != nil {
		return 0, err
	}
	return len(instruments), nil
}

// ImportDailyCSV loads daily bars from a CSV file with columns
// ts_code,trade_date,open,high,low,close,vol,amount,adj_factor. A header row
// is detected and skipped; empty numeric fields parse as zero. Returns the
// number of rows imported.
func (s *Store) ImportDailyCSV(path string) (int, error) {
	records, err := readCSV(path, 9)
	if err != nil {
		return 0, err
	}

	rows := make([]market.DailyRow, 0, len(records))
	for i, rec := range records {
		row := market.DailyRow{Code: rec[0], Date: rec[1]}
		vals := make([]float64, 7)
		for j := 2; j < 9; j++ {
			v, err := parseFloat(rec[j])
			if err != nil {
				return 0, fmt.Errorf("%s: row %d column %d: %w", path, i+1, j+1, err)
			}
			vals[j-2] = v
		}
		row.Open, row.High, row.Low, row.Close = vals[0], vals[1], vals[2], vals[3]
		row.Volume, row.Amount, row.AdjFactor = vals[4], vals[5], vals[6]
		rows = append(rows, row)
	}
	if err := s.UpsertDaily(rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func readCSV(path string, fields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields

	var out [][]string
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			if rec[0] == "ts_code" {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
