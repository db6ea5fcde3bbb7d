package strategies

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/stocksim/backtest"
	"github.com/rustyeddy/stocksim/indicators"
	"github.com/rustyeddy/stocksim/market"
)

// Rank is a rotating momentum portfolio. Every signal date it scores each
// code by its return over the slow window, keeps only codes whose fast EMA
// is above their slow EMA, and holds the best maxPositions of them at equal
// weight. It consumes full bar sets so held codes keep feeding their
// indicators after dropping out of the daily candidate list, capped to the
// top topK ranked codes.
type Rank struct {
	Hooks
	fast         int
	slow         int
	maxPositions int
	topK         int

	fastEMA map[string]*indicators.ExponentialMA
	slowEMA map[string]*indicators.ExponentialMA
	closes  map[string][]float64
}

func NewRank(fast, slow, maxPositions, topK int) *Rank {
	if fast < 1 {
		fast = 5
	}
	if slow <= fast {
		slow = fast * 4
	}
	if maxPositions < 1 {
		maxPositions = 4
	}
	if topK == 0 {
		topK = 50
	}
	return &Rank{
		fast:         fast,
		slow:         slow,
		maxPositions: maxPositions,
		topK:         topK,
		fastEMA:      make(map[string]*indicators.ExponentialMA),
		slowEMA:      make(map[string]*indicators.ExponentialMA),
		closes:       make(map[string][]float64),
	}
}

func (s *Rank) Name() string {
	return fmt.Sprintf("rank(%d,%d,top%d)", s.fast, s.slow, s.maxPositions)
}

func (s *Rank) UseFullBars() bool { return true }

func (s *Rank) TopK() int { return s.topK }

type rankScore struct {
	code  string
	score float64
}

func (s *Rank) OnBar(signalDate string, bars map[string]market.Bar, portfolio backtest.PortfolioSnapshot) []backtest.Order {
	codes := make([]string, 0, len(bars))
	for code := range bars {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var ranked []rankScore
	for _, code := range codes {
		close := bars[code].Close
		score, ok := s.update(code, close)
		if ok {
			ranked = append(ranked, rankScore{code: code, score: score})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].code < ranked[j].code
	})
	if len(ranked) > s.maxPositions {
		ranked = ranked[:s.maxPositions]
	}

	selected := make(map[string]bool, len(ranked))
	for _, r := range ranked {
		selected[r.code] = true
	}

	var orders []backtest.Order
	for _, code := range sortedCodes(portfolio.Positions) {
		if !selected[code] {
			orders = append(orders, backtest.Order{
				Code:           code,
				Action:         backtest.Sell,
				TargetFraction: backtest.Target(0),
				Reason:         "ranked out",
			})
		}
	}
	if len(ranked) > 0 {
		frac := 1.0 / float64(s.maxPositions)
		for _, r := range ranked {
			orders = append(orders, backtest.Order{
				Code:           r.code,
				Action:         backtest.Buy,
				TargetFraction: backtest.Target(frac),
				Reason:         "momentum rank",
			})
		}
	}
	return orders
}

// update feeds one close into the per-code state and returns the momentum
// score when the code is trending up with enough history, false otherwise.
func (s *Rank) update(code string, close float64) (float64, bool) {
	fast, ok := s.fastEMA[code]
	if !ok {
		fast = indicators.NewEMA(s.fast)
		s.fastEMA[code] = fast
	}
	slow, ok := s.slowEMA[code]
	if !ok {
		slow = indicators.NewEMA(s.slow)
		s.slowEMA[code] = slow
	}
	fast.Update(close)
	slow.Update(close)

	window := append(s.closes[code], close)
	if len(window) > s.slow+1 {
		window = window[1:]
	}
	s.closes[code] = window

	if !fast.Ready() || !slow.Ready() || fast.Value() <= slow.Value() {
		return 0, false
	}
	base := window[0]
	if len(window) < s.slow+1 || base <= 0 {
		return 0, false
	}
	return close/base - 1, true
}

// sortedCodes returns the map's keys in ascending order.
func sortedCodes(m map[string]float64) []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
