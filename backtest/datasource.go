package backtest

import "github.com/rustyeddy/stocksim/market"

// DataSource supplies everything the engine needs from the outside world.
// All calls are synchronous and happen before each chunk is processed; the
// engine never blocks on I/O mid-day. Implementations must return rows and
// dates deterministically for identical inputs.
type DataSource interface {
	// BuildUniverse returns candidate instrument codes as of a date, after
	// static filtering by market, name keywords and minimum listed days.
	BuildUniverse(asOfDate string, f UniverseFilter) ([]string, error)

	// TradeDatesForCodes returns the sorted distinct trade dates on which at
	// least one of the codes has a bar, within [start, end].
	TradeDatesForCodes(codes []string, start, end string) ([]string, error)

	// DailyForCodes returns raw daily rows for the codes within [start, end].
	DailyForCodes(codes []string, start, end string) ([]market.DailyRow, error)

	// LastAdjFactors returns the most recent adjustment factor at or before
	// asOfDate per code. Codes with no known factor are absent from the map.
	LastAdjFactors(codes []string, asOfDate string) (map[string]float64, error)
}
