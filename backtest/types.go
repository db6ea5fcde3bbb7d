// Package backtest implements a deterministic daily backtesting engine for
// equities: universe selection, bar-by-bar strategy dispatch, realistic order
// execution (lot sizing, fees, slippage, T+1 settlement) and result curves.
package backtest

const (
	// LotSize is the minimum tradable unit; every executed quantity is a
	// multiple of it.
	LotSize = 100

	// chunkTradingDays bounds how many trading days of rows are fetched from
	// the data source per query.
	chunkTradingDays = 120

	// cashEpsilon is the threshold below which residual cash is snapped to
	// zero, and below which a buy is considered unfunded.
	cashEpsilon = 1e-8
)

// Action is the direction of an order.
type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

// Order is a single-use trade intent produced by a strategy. Exactly one of
// Qty and TargetFraction is honored: when TargetFraction is set the executor
// derives both direction and quantity from it, otherwise Qty and Action are
// taken as given.
type Order struct {
	Code           string
	Action         Action
	Qty            float64  // absolute quantity, used when TargetFraction is nil
	TargetFraction *float64 // desired position value as a fraction of equity
	Reason         string
}

// Target is a convenience for building target-fraction orders.
func Target(frac float64) *float64 {
	return &frac
}

// PortfolioSnapshot is the read-only view of portfolio state handed to a
// strategy each step. Positions is a copy; mutating it has no effect on the
// engine. Any desired position change must be expressed as a returned Order.
type PortfolioSnapshot struct {
	Cash      float64
	Equity    float64
	Positions map[string]float64
}

// Params are the run-level simulation parameters.
type Params struct {
	StartDate    string  `json:"start_date" yaml:"start_date"`
	EndDate      string  `json:"end_date" yaml:"end_date"`
	InitialCash  float64 `json:"initial_cash" yaml:"initial_cash"`
	FeeRate      float64 `json:"fee_rate" yaml:"fee_rate"`
	SlippageRate float64 `json:"slippage_rate" yaml:"slippage_rate"`
	AdjustMode   string  `json:"adjust_mode" yaml:"adjust_mode"` // forward or backward
	WarmupDays   int     `json:"warmup_days" yaml:"warmup_days"`
}

// UniverseFilter narrows the static instrument universe before any daily
// filtering happens.
type UniverseFilter struct {
	Market          string   `json:"market" yaml:"market"`
	ExcludeKeywords []string `json:"exclude_keywords" yaml:"exclude_keywords"`
	MinListDays     int      `json:"min_list_days" yaml:"min_list_days"`
}

// DailyRuleFilter holds hard per-bar bounds; a nil bound is unconstrained.
type DailyRuleFilter struct {
	MinPrice  *float64 `json:"min_price,omitempty" yaml:"min_price,omitempty"`
	MaxPrice  *float64 `json:"max_price,omitempty" yaml:"max_price,omitempty"`
	MinVolume *float64 `json:"min_volume,omitempty" yaml:"min_volume,omitempty"`
	MaxVolume *float64 `json:"max_volume,omitempty" yaml:"max_volume,omitempty"`
	MinAmount *float64 `json:"min_amount,omitempty" yaml:"min_amount,omitempty"`
	MaxAmount *float64 `json:"max_amount,omitempty" yaml:"max_amount,omitempty"`
}

// ScoreConfig drives the daily candidate ranking.
type ScoreConfig struct {
	TopN           int     `json:"top_n" yaml:"top_n"`
	MomentumWeight float64 `json:"momentum_weight" yaml:"momentum_weight"`
	VolumeWeight   float64 `json:"volume_weight" yaml:"volume_weight"`
	AmountWeight   float64 `json:"amount_weight" yaml:"amount_weight"`
}

// OrderStatus classifies the outcome of an attempted order.
type OrderStatus string

const (
	StatusExecuted OrderStatus = "executed"
	StatusSkipped  OrderStatus = "skipped"
	StatusIgnored  OrderStatus = "ignored" // no executable quantity
)

// OrderOutcome records exactly one attempted order in the daily log. Reason
// carries the block reason for skipped orders and the strategy's own reason
// otherwise.
type OrderOutcome struct {
	Code           string      `json:"ts_code"`
	Action         Action      `json:"action"`
	Qty            float64     `json:"qty,omitempty"`
	TargetFraction *float64    `json:"target_fraction,omitempty"`
	Reason         string      `json:"reason"`
	Status         OrderStatus `json:"status"`
	ExecQty        float64     `json:"exec_qty,omitempty"`
	ExecPrice      float64     `json:"exec_price,omitempty"`
}

// Trade is one executed order in the append-only trade log.
type Trade struct {
	Code      string  `json:"ts_code"`
	Date      string  `json:"trade_date"`
	Action    Action  `json:"action"`
	Qty       float64 `json:"qty"`
	Price     float64 `json:"price"`
	Fee       float64 `json:"fee"`
	CashAfter float64 `json:"cash_after"`
	Reason    string  `json:"reason"`
}
