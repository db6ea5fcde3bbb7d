package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func row(code, date string, close, factor float64) DailyRow {
	return DailyRow{
		Code: code, Date: date,
		Open: close, High: close, Low: close, Close: close,
		Volume: 1000, Amount: close * 1000,
		AdjFactor: factor,
	}
}

func TestAdjusterForward(t *testing.T) {
	t.Run("latest bar keeps its raw price", func(t *testing.T) {
		adj := NewAdjuster(AdjustForward, map[string]float64{"000001.SZ": 1.1})
		bars, _ := adj.Build([]DailyRow{
			row("000001.SZ", "2024-01-02", 10.0, 1.0),
			row("000001.SZ", "2024-01-03", 11.0, 1.1),
		})

		assert.InDelta(t, 10.0/1.1, bars["2024-01-02"]["000001.SZ"].Close, 1e-9)
		assert.InDelta(t, 11.0, bars["2024-01-03"]["000001.SZ"].Close, 1e-9)
	})

	t.Run("unseeded ratio falls back to last in-chunk factor", func(t *testing.T) {
		adj := NewAdjuster(AdjustForward, nil)
		bars, _ := adj.Build([]DailyRow{
			row("000001.SZ", "2024-01-02", 10.0, 1.0),
			row("000001.SZ", "2024-01-03", 11.0, 1.1),
		})

		assert.InDelta(t, 11.0, bars["2024-01-03"]["000001.SZ"].Close, 1e-9)
	})

	t.Run("missing factor means multiplier one", func(t *testing.T) {
		adj := NewAdjuster(AdjustForward, nil)
		bars, _ := adj.Build([]DailyRow{
			row("000001.SZ", "2024-01-02", 10.0, 0),
		})

		assert.InDelta(t, 10.0, bars["2024-01-02"]["000001.SZ"].Close, 1e-9)
	})

	t.Run("avg price is ohlc mean", func(t *testing.T) {
		adj := NewAdjuster(AdjustForward, nil)
		bars, _ := adj.Build([]DailyRow{
			{Code: "000001.SZ", Date: "2024-01-02", Open: 10, High: 12, Low: 9, Close: 11, AdjFactor: 0},
		})

		assert.InDelta(t, (10.0+12.0+9.0+11.0)/4.0, bars["2024-01-02"]["000001.SZ"].AvgPrice, 1e-9)
	})
}

func TestAdjusterBackward(t *testing.T) {
	adj := NewAdjuster(AdjustBackward, map[string]float64{"000001.SZ": 1.1})
	bars, _ := adj.Build([]DailyRow{
		row("000001.SZ", "2024-01-02", 10.0, 1.0),
		row("000001.SZ", "2024-01-03", 11.0, 1.1),
	})

	// Backward mode applies the raw factor and ignores the seed.
	assert.InDelta(t, 10.0, bars["2024-01-02"]["000001.SZ"].Close, 1e-9)
	assert.InDelta(t, 11.0*1.1, bars["2024-01-03"]["000001.SZ"].Close, 1e-9)
}

func TestAdjusterPrevClose(t *testing.T) {
	t.Run("first bar is its own previous close", func(t *testing.T) {
		adj := NewAdjuster(AdjustBackward, nil)
		bars, prev := adj.Build([]DailyRow{
			row("000001.SZ", "2024-01-02", 10.0, 1.0),
			row("000001.SZ", "2024-01-03", 11.0, 1.0),
		})

		assert.InDelta(t, bars["2024-01-02"]["000001.SZ"].Close, prev["2024-01-02"]["000001.SZ"], 1e-9)
		assert.InDelta(t, 10.0, prev["2024-01-03"]["000001.SZ"], 1e-9)
	})

	t.Run("carries across chunks", func(t *testing.T) {
		adj := NewAdjuster(AdjustBackward, nil)
		adj.Build([]DailyRow{
			row("000001.SZ", "2024-01-02", 10.0, 1.0),
		})
		_, prev := adj.Build([]DailyRow{
			row("000001.SZ", "2024-01-03", 11.0, 1.0),
		})

		assert.InDelta(t, 10.0, prev["2024-01-03"]["000001.SZ"], 1e-9)
	})
}

func TestAdjusterIdempotent(t *testing.T) {
	first := NewAdjuster(AdjustForward, map[string]float64{"000001.SZ": 1.1})
	bars, _ := first.Build([]DailyRow{
		{Code: "000001.SZ", Date: "2024-01-02", Open: 10, High: 12, Low: 9, Close: 11, Volume: 1000, Amount: 11000, AdjFactor: 1.0},
		{Code: "000001.SZ", Date: "2024-01-03", Open: 11, High: 13, Low: 10, Close: 12, Volume: 1200, Amount: 14400, AdjFactor: 1.1},
	})

	// Feeding adjusted output back in with factor 1.0 is a no-op.
	var again []DailyRow
	for date, byCode := range bars {
		for code, b := range byCode {
			again = append(again, DailyRow{
				Code: code, Date: date,
				Open: b.Open, High: b.High, Low: b.Low, Close: b.Close,
				Volume: b.Volume, Amount: b.Amount,
				AdjFactor: 1.0,
			})
		}
	}

	second := NewAdjuster(AdjustForward, nil)
	rebuilt, _ := second.Build(again)

	assert.Equal(t, bars, rebuilt)
}

func TestAdjusterRowOrderIndependent(t *testing.T) {
	build := func(rows []DailyRow) map[string]map[string]Bar {
		adj := NewAdjuster(AdjustForward, nil)
		bars, _ := adj.Build(rows)
		return bars
	}

	a := build([]DailyRow{
		row("000001.SZ", "2024-01-02", 10.0, 1.0),
		row("000001.SZ", "2024-01-03", 11.0, 1.1),
		row("600000.SH", "2024-01-02", 20.0, 2.0),
	})
	b := build([]DailyRow{
		row("600000.SH", "2024-01-02", 20.0, 2.0),
		row("000001.SZ", "2024-01-03", 11.0, 1.1),
		row("000001.SZ", "2024-01-02", 10.0, 1.0),
	})

	assert.Equal(t, a, b)
}
