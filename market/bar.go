// Package market holds the core market-data types shared by the store and
// the backtest engine: raw daily rows as persisted, and price-adjusted bars
// as consumed by strategies.
package market

// AdjustMode selects how adjustment factors are applied to raw prices.
type AdjustMode string

const (
	// AdjustForward rescales history so the most recent bar equals its
	// unadjusted price and all earlier bars are proportionally adjusted.
	AdjustForward AdjustMode = "forward"

	// AdjustBackward applies the raw factor with no rescaling; the earliest
	// prices stay close to their as-traded values.
	AdjustBackward AdjustMode = "backward"
)

// Valid reports whether m is a known adjustment mode.
func (m AdjustMode) Valid() bool {
	return m == AdjustForward || m == AdjustBackward
}

// DailyRow is one raw OHLCV row for one (instrument, date), as returned by
// the data store. Prices are unadjusted; AdjFactor is the cumulative
// adjustment factor for that date (0 when unknown).
type DailyRow struct {
	Code      string
	Date      string // YYYY-MM-DD
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Amount    float64
	AdjFactor float64
}

// Bar is one instrument's OHLCV for one trading date with prices adjusted
// for corporate actions. Bars are rebuilt fresh each run and never mutated.
type Bar struct {
	Code     string
	Date     string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AvgPrice float64 // (O+H+L+C)/4, the reference fill price
	Volume   float64
	Amount   float64
}
