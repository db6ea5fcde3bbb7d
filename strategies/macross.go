package strategies

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/stocksim/backtest"
	"github.com/rustyeddy/stocksim/indicators"
	"github.com/rustyeddy/stocksim/market"
)

// MACross trades a per-instrument moving average crossover: fully invested
// in a code while its fast SMA is above its slow SMA, flat otherwise. With
// several codes crossing up at once the target fraction is split evenly.
type MACross struct {
	Hooks
	fast int
	slow int

	fastMA map[string]*indicators.SimpleMA
	slowMA map[string]*indicators.SimpleMA
}

func NewMACross(fast, slow int) *MACross {
	if fast < 1 {
		fast = 5
	}
	if slow <= fast {
		slow = fast * 4
	}
	return &MACross{
		fast:   fast,
		slow:   slow,
		fastMA: make(map[string]*indicators.SimpleMA),
		slowMA: make(map[string]*indicators.SimpleMA),
	}
}

func (s *MACross) Name() string { return fmt.Sprintf("ma-cross(%d,%d)", s.fast, s.slow) }

func (s *MACross) OnBar(signalDate string, bars map[string]market.Bar, portfolio backtest.PortfolioSnapshot) []backtest.Order {
	codes := make([]string, 0, len(bars))
	for code := range bars {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var longs, exits []string
	for _, code := range codes {
		fast, ok := s.fastMA[code]
		if !ok {
			fast = indicators.NewSMA(s.fast)
			s.fastMA[code] = fast
		}
		slow, ok := s.slowMA[code]
		if !ok {
			slow = indicators.NewSMA(s.slow)
			s.slowMA[code] = slow
		}

		close := bars[code].Close
		fast.Update(close)
		slow.Update(close)

		if !fast.Ready() || !slow.Ready() {
			continue
		}
		if fast.Value() > slow.Value() {
			longs = append(longs, code)
		} else if portfolio.Positions[code] > 0 {
			exits = append(exits, code)
		}
	}

	var orders []backtest.Order
	for _, code := range exits {
		orders = append(orders, backtest.Order{
			Code:           code,
			Action:         backtest.Sell,
			TargetFraction: backtest.Target(0),
			Reason:         "ma cross down",
		})
	}
	if len(longs) > 0 {
		frac := 1.0 / float64(len(longs))
		for _, code := range longs {
			orders = append(orders, backtest.Order{
				Code:           code,
				Action:         backtest.Buy,
				TargetFraction: backtest.Target(frac),
				Reason:         "ma cross up",
			})
		}
	}
	return orders
}
