package strategies

import (
	"github.com/rustyeddy/stocksim/backtest"
	"github.com/rustyeddy/stocksim/market"
)

// Noop never trades. Useful as a baseline and for dry runs that only
// exercise data loading and the daily selection log.
type Noop struct {
	Hooks
}

func (Noop) Name() string { return "noop" }

func (Noop) OnBar(signalDate string, bars map[string]market.Bar, portfolio backtest.PortfolioSnapshot) []backtest.Order {
	return nil
}
