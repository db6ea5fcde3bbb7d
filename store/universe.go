package store

import (
	"strings"
	"time"

	"github.com/rustyeddy/stocksim/backtest"
)

// BuildUniverse returns the codes passing the static universe filter as of a
// date, sorted ascending. The listed-days cutoff counts calendar days; an
// instrument with no list date fails any positive cutoff.
func (s *Store) BuildUniverse(asOfDate string, f backtest.UniverseFilter) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT ts_code, name, market, COALESCE(list_date, '')
		FROM stock_basic
		ORDER BY ts_code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cutoff string
	if f.MinListDays > 0 {
		asOf, err := time.Parse("2006-01-02", asOfDate)
		if err != nil {
			return nil, err
		}
		cutoff = asOf.AddDate(0, 0, -f.MinListDays).Format("2006-01-02")
	}

	var out []string
	for rows.Next() {
		var code, name, mkt, listDate string
		if err := rows.Scan(&code, &name, &mkt, &listDate); err != nil {
			return nil, err
		}
		if f.Market != "" && !strings.EqualFold(mkt, f.Market) {
			continue
		}
		if excludedByName(name, f.ExcludeKeywords) {
			continue
		}
		if cutoff != "" && (listDate == "" || listDate > cutoff) {
			continue
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

func excludedByName(name string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
