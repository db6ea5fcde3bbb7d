package backtest

import (
	"math"
	"sort"

	"github.com/rustyeddy/stocksim/market"
)

// ScoredCode is one ranked candidate on a signal date.
type ScoredCode struct {
	Code  string  `json:"ts_code"`
	Score float64 `json:"score"`
}

// PickTopN applies the hard daily rules and the scoring function to one
// day's bars and returns the kept top-N set plus the full ranking of
// surviving candidates. Ties are broken by code ascending so the ranking is
// deterministic.
func PickTopN(bars map[string]market.Bar, prevClose map[string]float64, rules DailyRuleFilter, cfg ScoreConfig) (map[string]market.Bar, []ScoredCode) {
	scored := make([]ScoredCode, 0, len(bars))
	for code, bar := range bars {
		if !passesDailyRules(bar, rules) {
			continue
		}
		prev, ok := prevClose[code]
		if !ok {
			prev = bar.Close
		}
		scored = append(scored, ScoredCode{Code: code, Score: scoreBar(bar, prev, cfg)})
	}
	if len(scored) == 0 {
		return map[string]market.Bar{}, nil
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Code < scored[j].Code
	})

	topN := cfg.TopN
	if topN < 1 {
		topN = 1
	}
	if topN > len(scored) {
		topN = len(scored)
	}

	kept := make(map[string]market.Bar, topN)
	for _, sc := range scored[:topN] {
		kept[sc.Code] = bars[sc.Code]
	}
	return kept, scored
}

// passesDailyRules reports whether a bar survives the hard filters. A nil
// bound is unconstrained.
func passesDailyRules(bar market.Bar, rules DailyRuleFilter) bool {
	if rules.MinPrice != nil && bar.Close < *rules.MinPrice {
		return false
	}
	if rules.MaxPrice != nil && bar.Close > *rules.MaxPrice {
		return false
	}
	if rules.MinVolume != nil && bar.Volume < *rules.MinVolume {
		return false
	}
	if rules.MaxVolume != nil && bar.Volume > *rules.MaxVolume {
		return false
	}
	if rules.MinAmount != nil && bar.Amount < *rules.MinAmount {
		return false
	}
	if rules.MaxAmount != nil && bar.Amount > *rules.MaxAmount {
		return false
	}
	return true
}

// scoreBar computes the ranking score for a bar. Momentum is zero when the
// previous close is unknown or non-positive.
func scoreBar(bar market.Bar, prevClose float64, cfg ScoreConfig) float64 {
	momentum := 0.0
	if prevClose > 0 {
		momentum = bar.Close/prevClose - 1.0
	}
	score := cfg.MomentumWeight * momentum
	score += cfg.VolumeWeight * math.Log1p(math.Max(bar.Volume, 0))
	score += cfg.AmountWeight * math.Log1p(math.Max(bar.Amount, 0))
	return score
}
