// Package strategies contains the built-in trading strategies plus the
// registry used to resolve them by name.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/stocksim/backtest"
)

var registry = make(map[string]backtest.Strategy)

// Register adds a strategy under a name so ByName can resolve it. Built-in
// names take precedence over registered ones.
func Register(name string, strat backtest.Strategy) {
	registry[strings.ToLower(strings.TrimSpace(name))] = strat
}

// Options carries the tunables shared by the built-in strategies. Zero
// values fall back to per-strategy defaults.
type Options struct {
	FastPeriod   int
	SlowPeriod   int
	MaxPositions int
	TopK         int
}

// ByName resolves a strategy by name, consulting the built-ins first and the
// registry second.
func ByName(name string, opts Options) (backtest.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "momentum":
		return NewMomentum(), nil

	case "ma-cross", "macross":
		return NewMACross(opts.FastPeriod, opts.SlowPeriod), nil

	case "rank":
		return NewRank(opts.FastPeriod, opts.SlowPeriod, opts.MaxPositions, opts.TopK), nil
	}

	if strat, ok := registry[strings.ToLower(strings.TrimSpace(name))]; ok {
		return strat, nil
	}
	return nil, fmt.Errorf("unknown strategy %q (built-in: noop, momentum, ma-cross, rank)", name)
}

// Hooks provides no-op lifecycle methods for strategies that only need OnBar.
type Hooks struct{}

func (Hooks) OnStart(startDate, endDate string)             {}
func (Hooks) OnFinish(portfolio backtest.PortfolioSnapshot) {}
