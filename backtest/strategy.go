package backtest

import "github.com/rustyeddy/stocksim/market"

// Strategy is the pluggable decision maker. The engine calls OnStart once,
// OnBar once per simulated day (including warmup days, whose orders are
// discarded), and OnFinish once after the last day.
//
// A strategy owns its private indicator history across OnBar calls; that is
// the only mutable state it may keep. It must not mutate the bars map or the
// snapshot it receives, and must express every desired position change as a
// returned Order.
type Strategy interface {
	// Name returns a stable identifier used for registries and journaling.
	Name() string

	// OnStart is called once before the first bar.
	OnStart(startDate, endDate string)

	// OnBar receives the signal date, the bar set for that date (the kept
	// candidate set by default; see FullBarConsumer) and a read-only
	// portfolio snapshot. Returned orders execute against the next trading
	// day's prices.
	OnBar(signalDate string, bars map[string]market.Bar, portfolio PortfolioSnapshot) []Order

	// OnFinish is called once after the last day.
	OnFinish(portfolio PortfolioSnapshot)
}

// FullBarConsumer is an optional interface. A strategy returning true sees
// the full day's bar set in OnBar instead of the daily selector's kept
// candidates.
type FullBarConsumer interface {
	UseFullBars() bool
}

// TopCapped is an optional interface. In the full-bars path the ranked
// candidate list is capped to TopK entries before it reaches the strategy;
// the cap has no effect outside that path. TopK <= 0 disables the cap.
type TopCapped interface {
	TopK() int
}
