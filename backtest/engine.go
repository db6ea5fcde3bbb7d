package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/stocksim/market"
)

// Engine drives a single backtest run: one deterministic, fully sequential
// pass over sorted trade dates. It owns the only mutable shared state (cash,
// positions, curves); strategies receive snapshot copies.
//
// Decisions are made on signal-date bars and filled at the next trading
// day's prices, so the simulation never looks ahead. The first simulated day
// has no prior bar set and serves as its own signal date.
type Engine struct {
	ds       DataSource
	strategy Strategy
	params   Params
	universe UniverseFilter
	rules    DailyRuleFilter
	score    ScoreConfig
}

// New builds an Engine. The data source and strategy are required; filters
// may be zero values.
func New(ds DataSource, strategy Strategy, params Params, universe UniverseFilter, rules DailyRuleFilter, score ScoreConfig) *Engine {
	return &Engine{
		ds:       ds,
		strategy: strategy,
		params:   params,
		universe: universe,
		rules:    rules,
		score:    score,
	}
}

const dateLayout = "2006-01-02"

// validate rejects structurally invalid parameters before the loop starts.
// Everything else degrades gracefully into the daily log.
func (e *Engine) validate() (market.AdjustMode, time.Time, error) {
	p := e.params
	if e.ds == nil {
		return "", time.Time{}, fmt.Errorf("backtest: data source is required")
	}
	if e.strategy == nil {
		return "", time.Time{}, fmt.Errorf("backtest: strategy is required")
	}
	start, err := time.Parse(dateLayout, p.StartDate)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("backtest: bad start_date %q: %w", p.StartDate, err)
	}
	end, err := time.Parse(dateLayout, p.EndDate)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("backtest: bad end_date %q: %w", p.EndDate, err)
	}
	if end.Before(start) {
		return "", time.Time{}, fmt.Errorf("backtest: end_date %s before start_date %s", p.EndDate, p.StartDate)
	}
	if p.InitialCash <= 0 {
		return "", time.Time{}, fmt.Errorf("backtest: initial_cash must be positive")
	}
	if p.WarmupDays < 0 {
		return "", time.Time{}, fmt.Errorf("backtest: warmup_days must be non-negative")
	}
	if p.FeeRate < 0 || p.SlippageRate < 0 {
		return "", time.Time{}, fmt.Errorf("backtest: fee_rate and slippage_rate must be non-negative")
	}
	mode := market.AdjustMode(p.AdjustMode)
	if p.AdjustMode == "" {
		mode = market.AdjustForward
	}
	if !mode.Valid() {
		return "", time.Time{}, fmt.Errorf("backtest: unknown adjust_mode %q", p.AdjustMode)
	}
	return mode, start, nil
}

// Run executes the backtest and returns the accumulated result. Fatal
// configuration errors abort before the loop begins; data anomalies show up
// only in the daily log's order outcomes.
func (e *Engine) Run() (Result, error) {
	p := e.params

	mode, start, err := e.validate()
	if err != nil {
		return Result{}, err
	}

	// Calendar days approximate trading days at roughly 2:1.
	warmupStart := start.AddDate(0, 0, -2*p.WarmupDays).Format(dateLayout)

	codes, err := e.ds.BuildUniverse(p.StartDate, e.universe)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: build universe: %w", err)
	}
	sort.Strings(codes)

	dates, err := e.ds.TradeDatesForCodes(codes, warmupStart, p.EndDate)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: trade dates: %w", err)
	}
	dates = sortedUnique(dates)

	if len(codes) == 0 || len(dates) == 0 {
		return Result{
			Summary:  Summary{FinalEquity: p.InitialCash},
			AsOfDate: p.EndDate,
		}, nil
	}

	lastFactors, err := e.ds.LastAdjFactors(codes, p.EndDate)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: last adj factors: %w", err)
	}
	adj := market.NewAdjuster(mode, lastFactors)

	port := newPortfolio(p.InitialCash)
	lastPrices := make(map[string]float64)
	lastBuyDate := make(map[string]string)
	peak := port.cash

	res := Result{AsOfDate: p.EndDate}

	// Carry the previous date's bars and prev-close map so the first day of
	// each chunk still has its signal bars.
	var prevBars map[string]market.Bar
	var prevCloses map[string]float64

	e.strategy.OnStart(p.StartDate, p.EndDate)

	for chunkStart := 0; chunkStart < len(dates); chunkStart += chunkTradingDays {
		chunkEnd := chunkStart + chunkTradingDays
		if chunkEnd > len(dates) {
			chunkEnd = len(dates)
		}

		rows, err := e.ds.DailyForCodes(codes, dates[chunkStart], dates[chunkEnd-1])
		if err != nil {
			return Result{}, fmt.Errorf("backtest: daily rows %s..%s: %w", dates[chunkStart], dates[chunkEnd-1], err)
		}
		barsByDate, prevCloseByDate := adj.Build(rows)

		for i := chunkStart; i < chunkEnd; i++ {
			execDate := dates[i]
			execBars := barsByDate[execDate]

			signalDate, signalBars, signalCloses := execDate, execBars, prevCloseByDate[execDate]
			if i > 0 {
				signalDate, signalBars, signalCloses = dates[i-1], prevBars, prevCloses
			}

			selected, scored := PickTopN(signalBars, signalCloses, e.rules, e.score)

			if i == 0 {
				for code, bar := range signalBars {
					lastPrices[code] = bar.Close
				}
			}
			equity := port.cash + port.value(lastPrices)

			orders := e.strategy.OnBar(signalDate, e.strategyInput(selected, signalBars, scored), port.snapshot(equity))

			if execDate < p.StartDate {
				// Warmup: indicator state is primed, orders are discarded
				// and nothing is logged.
				for code, bar := range execBars {
					lastPrices[code] = bar.Close
				}
				prevBars, prevCloses = execBars, prevCloseByDate[execDate]
				continue
			}

			outcomes, dayTrades := executeDay(port, lastBuyDate, orders, execContext{
				date:         execDate,
				bars:         execBars,
				equity:       equity,
				feeRate:      p.FeeRate,
				slippageRate: p.SlippageRate,
			})
			res.TradeLog = append(res.TradeLog, dayTrades...)

			for code, bar := range execBars {
				lastPrices[code] = bar.Close
			}
			positionValue := port.value(lastPrices)
			equity = port.cash + positionValue
			if equity > peak {
				peak = equity
			}
			drawdown := 0.0
			if peak > 0 {
				drawdown = equity/peak - 1
			}
			invested := 0.0
			if equity > 0 {
				invested = positionValue / equity
			}

			res.EquityCurve = append(res.EquityCurve, CurvePoint{Date: execDate, Equity: equity})
			res.DrawdownCurve = append(res.DrawdownCurve, DrawdownPoint{Date: execDate, Drawdown: drawdown})
			res.PositionsCurve = append(res.PositionsCurve, ExposurePoint{Date: execDate, InvestedRatio: invested})
			res.DailyLog = append(res.DailyLog, DailyLogEntry{
				Date:       execDate,
				SignalDate: signalDate,
				Selected:   selectedCandidates(scored, signalBars, e.score.TopN),
				Orders:     outcomes,
				Positions:  positionLines(port.positions),
				Cash:       port.cash,
				Equity:     equity,
			})

			prevBars, prevCloses = execBars, prevCloseByDate[execDate]
		}
	}

	finalEquity := port.cash
	if n := len(res.EquityCurve); n > 0 {
		finalEquity = res.EquityCurve[n-1].Equity
	}

	e.strategy.OnFinish(port.snapshot(finalEquity))

	res.Summary = Summary{
		TotalReturn: finalEquity/p.InitialCash - 1,
		MaxDrawdown: minDrawdown(res.DrawdownCurve),
		TotalTrades: len(res.TradeLog),
		FinalEquity: finalEquity,
	}
	res.FinalPositions = finalPositions(port.positions, lastPrices, finalEquity)

	return res, nil
}

// strategyInput picks what the strategy sees on a signal date: the kept
// candidate set by default, the full bar set for FullBarConsumer strategies,
// capped to the top K ranked candidates when the strategy declares a cap.
// The cap applies only in the full-bars path.
func (e *Engine) strategyInput(selected, full map[string]market.Bar, scored []ScoredCode) map[string]market.Bar {
	fc, ok := e.strategy.(FullBarConsumer)
	if !ok || !fc.UseFullBars() {
		return selected
	}
	tc, ok := e.strategy.(TopCapped)
	if !ok || tc.TopK() <= 0 {
		return full
	}
	k := tc.TopK()
	if k > len(scored) {
		k = len(scored)
	}
	capped := make(map[string]market.Bar, k)
	for _, sc := range scored[:k] {
		if bar, ok := full[sc.Code]; ok {
			capped[sc.Code] = bar
		}
	}
	return capped
}

// selectedCandidates renders the top-N ranking for the daily log.
func selectedCandidates(scored []ScoredCode, bars map[string]market.Bar, topN int) []SelectedCandidate {
	if topN < 1 {
		topN = 1
	}
	if topN > len(scored) {
		topN = len(scored)
	}
	out := make([]SelectedCandidate, 0, topN)
	for _, sc := range scored[:topN] {
		bar, ok := bars[sc.Code]
		if !ok {
			continue
		}
		out = append(out, SelectedCandidate{
			Code:     sc.Code,
			Score:    sc.Score,
			Close:    bar.Close,
			AvgPrice: bar.AvgPrice,
		})
	}
	return out
}

// positionLines renders holdings sorted by quantity descending, code
// ascending on ties.
func positionLines(positions map[string]float64) []PositionLine {
	out := make([]PositionLine, 0, len(positions))
	for code, qty := range positions {
		out = append(out, PositionLine{Code: code, Qty: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Qty != out[j].Qty {
			return out[i].Qty > out[j].Qty
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// finalPositions values each end-of-run holding at its last known close.
func finalPositions(positions map[string]float64, lastPrices map[string]float64, equity float64) []FinalPosition {
	out := make([]FinalPosition, 0, len(positions))
	for code, qty := range positions {
		value := qty * lastPrices[code]
		weight := 0.0
		if equity > 0 {
			weight = value / equity
		}
		out = append(out, FinalPosition{Code: code, Qty: qty, Value: value, Weight: weight})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func minDrawdown(curve []DrawdownPoint) float64 {
	min := 0.0
	for _, pt := range curve {
		if pt.Drawdown < min {
			min = pt.Drawdown
		}
	}
	return min
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[i-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
