package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/stocksim/market"
)

func bar(code string, close, volume, amount float64) market.Bar {
	return market.Bar{
		Code: code, Date: "2024-01-02",
		Open: close, High: close, Low: close, Close: close,
		AvgPrice: close, Volume: volume, Amount: amount,
	}
}

func TestPickTopNFilters(t *testing.T) {
	minPrice := 2.0
	bars := map[string]market.Bar{
		"000001.SZ": bar("000001.SZ", 1.5, 1000, 1500),
		"600000.SH": bar("600000.SH", 10.0, 1000, 10000),
	}

	kept, scored := PickTopN(bars, nil, DailyRuleFilter{MinPrice: &minPrice}, ScoreConfig{TopN: 10})

	assert.Len(t, kept, 1)
	assert.Contains(t, kept, "600000.SH")
	assert.Len(t, scored, 1)
}

func TestPickTopNBounds(t *testing.T) {
	bars := map[string]market.Bar{
		"000001.SZ": bar("000001.SZ", 10, 1000, 10000),
		"600000.SH": bar("600000.SH", 20, 2000, 40000),
	}

	t.Run("top_n below one keeps one", func(t *testing.T) {
		kept, scored := PickTopN(bars, nil, DailyRuleFilter{}, ScoreConfig{TopN: 0, VolumeWeight: 1})
		assert.Len(t, kept, 1)
		assert.Len(t, scored, 2)
	})

	t.Run("top_n beyond survivors keeps all", func(t *testing.T) {
		kept, _ := PickTopN(bars, nil, DailyRuleFilter{}, ScoreConfig{TopN: 100})
		assert.Len(t, kept, 2)
	})

	t.Run("all filtered out", func(t *testing.T) {
		maxPrice := 1.0
		kept, scored := PickTopN(bars, nil, DailyRuleFilter{MaxPrice: &maxPrice}, ScoreConfig{TopN: 10})
		assert.Empty(t, kept)
		assert.Nil(t, scored)
	})
}

func TestPickTopNRanking(t *testing.T) {
	prev := map[string]float64{
		"000001.SZ": 10.0,
		"600000.SH": 10.0,
	}
	bars := map[string]market.Bar{
		"000001.SZ": bar("000001.SZ", 11.0, 1000, 10000), // +10% momentum
		"600000.SH": bar("600000.SH", 10.5, 1000, 10000), // +5% momentum
	}

	_, scored := PickTopN(bars, prev, DailyRuleFilter{}, ScoreConfig{TopN: 1, MomentumWeight: 1})

	assert.Equal(t, "000001.SZ", scored[0].Code)
	assert.Equal(t, "600000.SH", scored[1].Code)
	assert.Greater(t, scored[0].Score, scored[1].Score)
}

func TestPickTopNTieBreaksByCode(t *testing.T) {
	bars := map[string]market.Bar{
		"600000.SH": bar("600000.SH", 10, 1000, 10000),
		"000001.SZ": bar("000001.SZ", 10, 1000, 10000),
	}

	_, scored := PickTopN(bars, nil, DailyRuleFilter{}, ScoreConfig{TopN: 2, VolumeWeight: 1})

	assert.Equal(t, "000001.SZ", scored[0].Code)
	assert.Equal(t, "600000.SH", scored[1].Code)
}

func TestScoreBar(t *testing.T) {
	cfg := ScoreConfig{MomentumWeight: 1.0, VolumeWeight: 0.2, AmountWeight: 0.1}
	b := bar("000001.SZ", 11.0, 5000, 55000)

	want := 0.1 + 0.2*math.Log1p(5000) + 0.1*math.Log1p(55000)
	assert.InDelta(t, want, scoreBar(b, 10.0, cfg), 1e-9)

	t.Run("momentum zero without previous close", func(t *testing.T) {
		want := 0.2*math.Log1p(5000) + 0.1*math.Log1p(55000)
		assert.InDelta(t, want, scoreBar(b, 0, cfg), 1e-9)
	})
}
