package backtest

// CurvePoint is one equity observation.
type CurvePoint struct {
	Date   string  `json:"date"`
	Equity float64 `json:"equity"`
}

// DrawdownPoint is one peak-relative drawdown observation (0 at a new peak,
// negative below it).
type DrawdownPoint struct {
	Date     string  `json:"date"`
	Drawdown float64 `json:"drawdown"`
}

// ExposurePoint is the fraction of equity invested on one day.
type ExposurePoint struct {
	Date          string  `json:"date"`
	InvestedRatio float64 `json:"invested_ratio"`
}

// SelectedCandidate is one kept candidate as recorded in the daily log.
type SelectedCandidate struct {
	Code     string  `json:"ts_code"`
	Score    float64 `json:"score"`
	Close    float64 `json:"close"`
	AvgPrice float64 `json:"avg_price"`
}

// PositionLine is one held position as recorded in the daily log.
type PositionLine struct {
	Code string  `json:"ts_code"`
	Qty  float64 `json:"qty"`
}

// DailyLogEntry records everything that happened on one execution date.
type DailyLogEntry struct {
	Date       string              `json:"date"`
	SignalDate string              `json:"signal_date"`
	Selected   []SelectedCandidate `json:"selected"`
	Orders     []OrderOutcome      `json:"orders"`
	Positions  []PositionLine      `json:"positions"`
	Cash       float64             `json:"cash"`
	Equity     float64             `json:"equity"`
}

// Summary aggregates the run.
type Summary struct {
	TotalReturn float64 `json:"total_return"`
	MaxDrawdown float64 `json:"max_drawdown"`
	TotalTrades int     `json:"total_trades"`
	FinalEquity float64 `json:"final_equity"`
}

// FinalPosition is one end-of-run holding with its portfolio weight.
type FinalPosition struct {
	Code   string  `json:"ts_code"`
	Qty    float64 `json:"qty"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
}

// Result is the complete output of one backtest run. Curves and logs are
// append-only during the run and never mutated afterward.
type Result struct {
	Summary        Summary         `json:"summary"`
	EquityCurve    []CurvePoint    `json:"equity_curve"`
	DrawdownCurve  []DrawdownPoint `json:"drawdown_curve"`
	PositionsCurve []ExposurePoint `json:"positions_curve"`
	DailyLog       []DailyLogEntry `json:"daily_log"`
	TradeLog       []Trade         `json:"trade_log"`
	FinalPositions []FinalPosition `json:"final_positions"`
	AsOfDate       string          `json:"as_of_date"`
}
