package backtest

import (
	"math"
	"sort"

	"github.com/rustyeddy/stocksim/market"
)

// Block and outcome reasons recorded in the daily log.
const (
	reasonSameDaySell = "t+1: same-day sell blocked"
	reasonNoCash      = "no cash: buy blocked"
	reasonNoBar       = "no bar on execution date"
	reasonNoQty       = "no executable quantity"
)

// portfolio is the authoritative mutable state of a run. It is owned by the
// engine and mutated only by the executor; strategies see snapshot copies.
type portfolio struct {
	cash      float64
	positions map[string]float64
}

func newPortfolio(cash float64) *portfolio {
	return &portfolio{
		cash:      math.Max(cash, 0),
		positions: make(map[string]float64),
	}
}

// value returns the mark-to-market value of all positions at the last known
// close per code.
func (p *portfolio) value(lastPrices map[string]float64) float64 {
	total := 0.0
	for code, qty := range p.positions {
		total += qty * lastPrices[code]
	}
	return total
}

// snapshot builds the read-only view handed to strategies.
func (p *portfolio) snapshot(equity float64) PortfolioSnapshot {
	positions := make(map[string]float64, len(p.positions))
	for code, qty := range p.positions {
		positions[code] = qty
	}
	return PortfolioSnapshot{Cash: p.cash, Equity: equity, Positions: positions}
}

// normalizeCash snaps residual floating-point noise to exactly zero.
func (p *portfolio) normalizeCash() {
	if math.Abs(p.cash) < cashEpsilon {
		p.cash = 0
	}
}

// execContext is the per-day immutable input to the executor.
type execContext struct {
	date         string // execution date
	bars         map[string]market.Bar
	equity       float64 // equity fixed at the start of the execution pass
	feeRate      float64
	slippageRate float64
}

// classified pairs an order with its resolved direction and priority tier.
type classified struct {
	order    Order
	action   Action // resolved direction; may differ from order.Action
	priority int    // 0 intended sell, 1 intended buy, 2 fixed-qty/no-resolution
}

// executeDay runs one day's orders against the execution-date bars. Sells
// execute before buys so freed cash can fund entries; within a tier ties
// break by code ascending. Every attempted order yields exactly one outcome.
// lastBuyDate is updated with executed buys to enforce T+1.
func executeDay(p *portfolio, lastBuyDate map[string]string, orders []Order, ec execContext) ([]OrderOutcome, []Trade) {
	cls := make([]classified, len(orders))
	for i, o := range orders {
		cls[i] = classify(o, p, ec)
	}
	sort.SliceStable(cls, func(i, j int) bool {
		if cls[i].priority != cls[j].priority {
			return cls[i].priority < cls[j].priority
		}
		return cls[i].order.Code < cls[j].order.Code
	})

	outcomes := make([]OrderOutcome, 0, len(cls))
	var trades []Trade
	for _, c := range cls {
		outcome, trade := executeOne(p, lastBuyDate, c, ec)
		outcomes = append(outcomes, outcome)
		if trade != nil {
			trades = append(trades, *trade)
		}
		p.normalizeCash()
	}
	return outcomes, trades
}

// classify resolves the intended direction of an order. Target-fraction
// orders compare the desired quantity against the current holding; fixed-qty
// orders cannot be resolved ahead of time and run last.
func classify(o Order, p *portfolio, ec execContext) classified {
	c := classified{order: o, action: o.Action, priority: 2}
	if o.TargetFraction == nil {
		return c
	}
	bar, ok := ec.bars[o.Code]
	if !ok || bar.AvgPrice <= 0 {
		return c
	}
	desired := ec.equity * clampFraction(*o.TargetFraction) / bar.AvgPrice
	held := p.positions[o.Code]
	switch {
	case desired < held:
		c.action = Sell
		c.priority = 0
	case desired > held:
		c.action = Buy
		c.priority = 1
	}
	return c
}

// executeOne applies a single classified order to the portfolio and returns
// its outcome plus a trade record when it executed.
func executeOne(p *portfolio, lastBuyDate map[string]string, c classified, ec execContext) (OrderOutcome, *Trade) {
	o := c.order
	outcome := OrderOutcome{
		Code:           o.Code,
		Action:         o.Action,
		Qty:            o.Qty,
		TargetFraction: o.TargetFraction,
		Reason:         o.Reason,
	}

	bar, ok := ec.bars[o.Code]
	if !ok {
		outcome.Status = StatusSkipped
		outcome.Reason = reasonNoBar
		return outcome, nil
	}
	if bar.AvgPrice <= 0 || (c.action != Buy && c.action != Sell) {
		outcome.Status = StatusIgnored
		outcome.Reason = reasonNoQty
		return outcome, nil
	}

	if c.action == Sell && lastBuyDate[o.Code] == ec.date {
		outcome.Status = StatusSkipped
		outcome.Reason = reasonSameDaySell
		return outcome, nil
	}
	if c.action == Buy && p.cash <= cashEpsilon {
		outcome.Status = StatusSkipped
		outcome.Reason = reasonNoCash
		return outcome, nil
	}

	held := p.positions[o.Code]
	var qty float64
	if o.TargetFraction != nil {
		desired := ec.equity * clampFraction(*o.TargetFraction) / bar.AvgPrice
		if c.action == Buy {
			qty = floorLot(desired - held)
		} else {
			qty = floorLot(held - desired)
		}
	} else {
		if c.action == Buy {
			qty = floorLot(o.Qty)
		} else {
			qty = floorLot(math.Min(o.Qty, held))
		}
	}

	if c.action == Buy {
		return executeBuy(p, lastBuyDate, outcome, bar, qty, ec)
	}
	return executeSell(p, outcome, bar, qty, held, ec)
}

func executeBuy(p *portfolio, lastBuyDate map[string]string, outcome OrderOutcome, bar market.Bar, qty float64, ec execContext) (OrderOutcome, *Trade) {
	price := bar.AvgPrice * (1 + ec.slippageRate)
	cost := qty * price
	fee := cost * ec.feeRate

	// Size down to the largest lot-aligned affordable quantity.
	if cost+fee > p.cash && price > 0 {
		qty = floorLot(p.cash / (price * (1 + ec.feeRate)))
		cost = qty * price
		fee = cost * ec.feeRate
	}
	if qty <= 0 {
		outcome.Status = StatusIgnored
		outcome.Reason = reasonNoQty
		return outcome, nil
	}

	p.cash -= cost + fee
	p.positions[bar.Code] += qty
	lastBuyDate[bar.Code] = ec.date

	outcome.Status = StatusExecuted
	outcome.ExecQty = qty
	outcome.ExecPrice = price
	return outcome, &Trade{
		Code:      bar.Code,
		Date:      ec.date,
		Action:    Buy,
		Qty:       qty,
		Price:     price,
		Fee:       fee,
		CashAfter: p.cash,
		Reason:    outcome.Reason,
	}
}

func executeSell(p *portfolio, outcome OrderOutcome, bar market.Bar, qty, held float64, ec execContext) (OrderOutcome, *Trade) {
	if qty > held {
		qty = floorLot(held)
	}
	if qty <= 0 {
		outcome.Status = StatusIgnored
		outcome.Reason = reasonNoQty
		return outcome, nil
	}

	price := bar.AvgPrice * (1 - ec.slippageRate)
	proceeds := qty * price
	fee := proceeds * ec.feeRate
	p.cash += proceeds - fee

	remaining := held - qty
	if remaining <= 0 {
		delete(p.positions, bar.Code)
	} else {
		p.positions[bar.Code] = remaining
	}

	outcome.Status = StatusExecuted
	outcome.ExecQty = qty
	outcome.ExecPrice = price
	return outcome, &Trade{
		Code:      bar.Code,
		Date:      ec.date,
		Action:    Sell,
		Qty:       qty,
		Price:     price,
		Fee:       fee,
		CashAfter: p.cash,
		Reason:    outcome.Reason,
	}
}

// floorLot rounds a quantity down to the nearest multiple of LotSize.
func floorLot(qty float64) float64 {
	if qty <= 0 {
		return 0
	}
	return math.Floor(qty/LotSize) * LotSize
}

// clampFraction bounds a target fraction to [0, 1].
func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
