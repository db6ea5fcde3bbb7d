package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stocksim/market"
)

// stubSource serves a fixed set of rows from memory.
type stubSource struct {
	codes   []string
	rows    []market.DailyRow
	factors map[string]float64
}

func (s *stubSource) BuildUniverse(asOfDate string, f UniverseFilter) ([]string, error) {
	return append([]string(nil), s.codes...), nil
}

func (s *stubSource) TradeDatesForCodes(codes []string, start, end string) ([]string, error) {
	seen := make(map[string]bool)
	var dates []string
	for _, r := range s.rows {
		if r.Date >= start && r.Date <= end && !seen[r.Date] {
			seen[r.Date] = true
			dates = append(dates, r.Date)
		}
	}
	return dates, nil
}

func (s *stubSource) DailyForCodes(codes []string, start, end string) ([]market.DailyRow, error) {
	var out []market.DailyRow
	for _, r := range s.rows {
		if r.Date >= start && r.Date <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubSource) LastAdjFactors(codes []string, asOfDate string) (map[string]float64, error) {
	return s.factors, nil
}

// buyFirstStrategy targets the full portfolio in one code every day.
type buyFirstStrategy struct {
	code string
	days []string // signal dates observed
}

func (s *buyFirstStrategy) Name() string { return "buy-first" }

func (s *buyFirstStrategy) OnStart(startDate, endDate string) {}

func (s *buyFirstStrategy) OnFinish(p PortfolioSnapshot) {}

func (s *buyFirstStrategy) OnBar(signalDate string, bars map[string]market.Bar, p PortfolioSnapshot) []Order {
	s.days = append(s.days, signalDate)
	if _, ok := bars[s.code]; !ok {
		return nil
	}
	return []Order{{Code: s.code, Action: Buy, TargetFraction: Target(1.0), Reason: "all in"}}
}

func flatRows(code string, dates []string, close float64) []market.DailyRow {
	rows := make([]market.DailyRow, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, market.DailyRow{
			Code: code, Date: d,
			Open: close, High: close, Low: close, Close: close,
			Volume: 1_000_000, Amount: close * 1_000_000,
			AdjFactor: 1.0,
		})
	}
	return rows
}

func testParams() Params {
	return Params{
		StartDate:   "2024-01-02",
		EndDate:     "2024-01-05",
		InitialCash: 100_000,
		AdjustMode:  "forward",
	}
}

func TestEngineOneEquityPointPerTradingDay(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03"}
	ds := &stubSource{
		codes: []string{"000001.SZ"},
		rows:  flatRows("000001.SZ", dates, 10),
	}
	strat := &buyFirstStrategy{code: "000001.SZ"}
	p := testParams()
	p.EndDate = "2024-01-03"

	res, err := New(ds, strat, p, UniverseFilter{}, DailyRuleFilter{}, ScoreConfig{TopN: 10}).Run()

	assert.NoError(t, err)
	assert.Len(t, res.EquityCurve, 2)
	assert.Len(t, res.DailyLog, 2)

	// The first day is its own signal date; every later day signals on the
	// prior trading day.
	assert.Equal(t, "2024-01-02", res.DailyLog[0].SignalDate)
	assert.Equal(t, "2024-01-02", res.DailyLog[1].SignalDate)
	assert.Equal(t, "2024-01-03", res.DailyLog[1].Date)
}

func TestEngineBuysAndHolds(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}
	ds := &stubSource{
		codes: []string{"000001.SZ"},
		rows:  flatRows("000001.SZ", dates, 10),
	}
	strat := &buyFirstStrategy{code: "000001.SZ"}

	res, err := New(ds, strat, testParams(), UniverseFilter{}, DailyRuleFilter{}, ScoreConfig{TopN: 10}).Run()

	assert.NoError(t, err)
	assert.Len(t, res.TradeLog, 1)
	assert.Equal(t, Buy, res.TradeLog[0].Action)
	assert.Equal(t, 10_000.0, res.TradeLog[0].Qty)
	assert.Len(t, res.FinalPositions, 1)
	assert.InDelta(t, 100_000.0, res.Summary.FinalEquity, 1e-6)
	assert.InDelta(t, 0.0, res.Summary.TotalReturn, 1e-9)

	for _, pt := range res.DailyLog {
		assert.GreaterOrEqual(t, pt.Cash, 0.0)
	}
}

func TestEngineDeterminism(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}
	rows := append(flatRows("000001.SZ", dates, 10), flatRows("600000.SH", dates, 20)...)
	run := func() Result {
		ds := &stubSource{codes: []string{"600000.SH", "000001.SZ"}, rows: rows}
		strat := &buyFirstStrategy{code: "000001.SZ"}
		res, err := New(ds, strat, testParams(), UniverseFilter{}, DailyRuleFilter{}, ScoreConfig{TopN: 10, VolumeWeight: 1}).Run()
		assert.NoError(t, err)
		return res
	}

	assert.Equal(t, run(), run())
}

func TestEngineEmptyUniverse(t *testing.T) {
	ds := &stubSource{}
	strat := &buyFirstStrategy{code: "000001.SZ"}

	res, err := New(ds, strat, testParams(), UniverseFilter{}, DailyRuleFilter{}, ScoreConfig{TopN: 10}).Run()

	assert.NoError(t, err)
	assert.Empty(t, res.EquityCurve)
	assert.Equal(t, 100_000.0, res.Summary.FinalEquity)
	assert.Equal(t, "2024-01-05", res.AsOfDate)
	assert.Empty(t, strat.days)
}

func TestEngineWarmup(t *testing.T) {
	dates := []string{"2023-12-28", "2023-12-29", "2024-01-02", "2024-01-03"}
	ds := &stubSource{
		codes: []string{"000001.SZ"},
		rows:  flatRows("000001.SZ", dates, 10),
	}
	strat := &buyFirstStrategy{code: "000001.SZ"}
	p := testParams()
	p.EndDate = "2024-01-03"
	p.WarmupDays = 3

	res, err := New(ds, strat, p, UniverseFilter{}, DailyRuleFilter{}, ScoreConfig{TopN: 10}).Run()

	assert.NoError(t, err)
	// Warmup days feed the strategy but never reach the log or the executor.
	assert.Len(t, strat.days, 4)
	assert.Len(t, res.EquityCurve, 2)
	assert.Equal(t, "2024-01-02", res.EquityCurve[0].Date)
	for _, tr := range res.TradeLog {
		assert.GreaterOrEqual(t, tr.Date, p.StartDate)
	}
}

func TestEngineChunkBoundaryCarry(t *testing.T) {
	// More trading days than one batch holds, so the loop crosses a batch
	// boundary and the first day of the second batch must still signal on the
	// last day of the first.
	n := chunkTradingDays + 10
	first, err := time.Parse(dateLayout, "2024-01-02")
	require.NoError(t, err)

	dates := make([]string, n)
	closes := make([]float64, n)
	rows := make([]market.DailyRow, 0, n)
	for i := 0; i < n; i++ {
		dates[i] = first.AddDate(0, 0, i).Format(dateLayout)
		closes[i] = 10 + 0.1*float64(i)
		rows = append(rows, market.DailyRow{
			Code: "000001.SZ", Date: dates[i],
			Open: closes[i], High: closes[i], Low: closes[i], Close: closes[i],
			Volume: 1_000_000, Amount: closes[i] * 1_000_000,
			AdjFactor: 1.0,
		})
	}

	ds := &stubSource{codes: []string{"000001.SZ"}, rows: rows}
	strat := &buyFirstStrategy{code: "000001.SZ"}
	p := testParams()
	p.StartDate = dates[0]
	p.EndDate = dates[n-1]

	res, err := New(ds, strat, p, UniverseFilter{}, DailyRuleFilter{}, ScoreConfig{TopN: 5, MomentumWeight: 1}).Run()

	assert.NoError(t, err)
	require.Len(t, res.EquityCurve, n)
	require.Len(t, res.DailyLog, n)

	boundary := res.DailyLog[chunkTradingDays]
	assert.Equal(t, dates[chunkTradingDays], boundary.Date)
	assert.Equal(t, dates[chunkTradingDays-1], boundary.SignalDate)

	// The boundary day scores against the carried bars and previous closes,
	// so momentum on a rising series stays positive and exact.
	require.NotEmpty(t, boundary.Selected)
	assert.InDelta(t, closes[chunkTradingDays-1]/closes[chunkTradingDays-2]-1, boundary.Selected[0].Score, 1e-9)

	after := res.DailyLog[chunkTradingDays+1]
	assert.Equal(t, dates[chunkTradingDays], after.SignalDate)
	require.NotEmpty(t, after.Selected)
	assert.InDelta(t, closes[chunkTradingDays]/closes[chunkTradingDays-1]-1, after.Selected[0].Score, 1e-9)

	// Bought once on day one and held through the boundary.
	require.Len(t, res.TradeLog, 1)
	assert.Equal(t, dates[0], res.TradeLog[0].Date)
	assert.Positive(t, res.Summary.TotalReturn)
}

func TestEngineDrawdown(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}
	rows := []market.DailyRow{}
	for i, close := range []float64{10, 10, 8, 9} {
		rows = append(rows, market.DailyRow{
			Code: "000001.SZ", Date: dates[i],
			Open: close, High: close, Low: close, Close: close,
			Volume: 1_000_000, Amount: close * 1_000_000, AdjFactor: 1.0,
		})
	}
	ds := &stubSource{codes: []string{"000001.SZ"}, rows: rows}
	strat := &buyFirstStrategy{code: "000001.SZ"}

	res, err := New(ds, strat, testParams(), UniverseFilter{}, DailyRuleFilter{}, ScoreConfig{TopN: 10}).Run()

	assert.NoError(t, err)
	assert.Negative(t, res.Summary.MaxDrawdown)
	assert.InDelta(t, res.Summary.FinalEquity/100_000-1, res.Summary.TotalReturn, 1e-9)
	// Drawdown recovers partially on the last day but the max sticks.
	assert.InDelta(t, -0.2, res.Summary.MaxDrawdown, 1e-9)
}

func TestEngineValidation(t *testing.T) {
	ds := &stubSource{}
	strat := &buyFirstStrategy{}

	t.Run("bad dates", func(t *testing.T) {
		p := testParams()
		p.StartDate = "02-01-2024"
		_, err := New(ds, strat, p, UniverseFilter{}, DailyRuleFilter{}, ScoreConfig{}).Run()
		assert.Error(t, err)
	})

	t.Run("end before start", func(t *testing.T) {
		p := testParams()
		p.EndDate = "2023-01-01"
		_, err := New(ds, strat, p, UniverseFilter{}, DailyRuleFilter{}, ScoreConfig{}).Run()
		assert.Error(t, err)
	})

	t.Run("non-positive cash", func(t *testing.T) {
		p := testParams()
		p.InitialCash = 0
		_, err := New(ds, strat, p, UniverseFilter{}, DailyRuleFilter{}, ScoreConfig{}).Run()
		assert.Error(t, err)
	})

	t.Run("unknown adjust mode", func(t *testing.T) {
		p := testParams()
		p.AdjustMode = "sideways"
		_, err := New(ds, strat, p, UniverseFilter{}, DailyRuleFilter{}, ScoreConfig{}).Run()
		assert.Error(t, err)
	})

	t.Run("missing strategy", func(t *testing.T) {
		_, err := New(ds, nil, testParams(), UniverseFilter{}, DailyRuleFilter{}, ScoreConfig{}).Run()
		assert.Error(t, err)
	})
}
