package strategies

import (
	"github.com/rustyeddy/stocksim/backtest"
	"github.com/rustyeddy/stocksim/market"
)

// Momentum is a deliberately simple single-position strategy: each signal
// date it targets the full portfolio in the candidate with the highest close,
// and exits anything else it still holds. Ties break by code ascending.
type Momentum struct {
	Hooks
}

func NewMomentum() *Momentum { return &Momentum{} }

func (s *Momentum) Name() string { return "momentum" }

func (s *Momentum) OnBar(signalDate string, bars map[string]market.Bar, portfolio backtest.PortfolioSnapshot) []backtest.Order {
	best := ""
	bestClose := 0.0
	for code, bar := range bars {
		if bar.Close > bestClose || (bar.Close == bestClose && best != "" && code < best) {
			best, bestClose = code, bar.Close
		}
	}
	if best == "" {
		return nil
	}

	var orders []backtest.Order
	for _, code := range sortedCodes(portfolio.Positions) {
		if code == best {
			continue
		}
		orders = append(orders, backtest.Order{
			Code:           code,
			Action:         backtest.Sell,
			TargetFraction: backtest.Target(0),
			Reason:         "rotate out",
		})
	}
	orders = append(orders, backtest.Order{
		Code:           best,
		Action:         backtest.Buy,
		TargetFraction: backtest.Target(1.0),
		Reason:         "highest close",
	})
	return orders
}
