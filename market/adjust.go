package market

import "sort"

// Adjuster converts raw daily rows into adjusted bars. It carries two small
// maps across successive Build calls so that chunked fetching stays
// continuous: the per-code rescale ratio and the per-code previous close.
// Building is a pure transform of its inputs plus that carry state; it never
// fails. Missing prices are treated as 0 and a missing or non-positive
// adjustment factor falls back to a multiplier of 1.0.
type Adjuster struct {
	mode      AdjustMode
	ratio     map[string]float64 // forward mode: 1 / last known factor
	prevClose map[string]float64 // last adjusted close seen per code
}

// NewAdjuster returns an Adjuster for the given mode. lastFactors holds the
// last adjustment factor known at or beyond the end of the query window
// (typically from Store.LastAdjFactors); it seeds the forward-mode rescale so
// the most recent bar lands on its unadjusted price. It may be nil.
func NewAdjuster(mode AdjustMode, lastFactors map[string]float64) *Adjuster {
	a := &Adjuster{
		mode:      mode,
		ratio:     make(map[string]float64),
		prevClose: make(map[string]float64),
	}
	for code, f := range lastFactors {
		if f > 0 {
			a.ratio[code] = 1.0 / f
		}
	}
	return a
}

// Build converts one chunk of raw rows into bars grouped by trade date,
// along with the previous adjusted close per (date, code) used for momentum
// scoring. Rows are grouped per code and processed in date order; results
// are independent of the input row order.
func (a *Adjuster) Build(rows []DailyRow) (map[string]map[string]Bar, map[string]map[string]float64) {
	byCode := make(map[string][]DailyRow)
	for _, r := range rows {
		if r.Code == "" || r.Date == "" {
			continue
		}
		byCode[r.Code] = append(byCode[r.Code], r)
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	barsByDate := make(map[string]map[string]Bar)
	prevCloseByDate := make(map[string]map[string]float64)

	for _, code := range codes {
		items := byCode[code]
		sort.Slice(items, func(i, j int) bool { return items[i].Date < items[j].Date })

		ratio := a.ratioFor(code, items)

		for _, r := range items {
			mult := r.AdjFactor
			if mult <= 0 {
				mult = 1.0
			}
			if a.mode == AdjustForward {
				mult *= ratio
			}

			bar := Bar{
				Code:   code,
				Date:   r.Date,
				Open:   r.Open * mult,
				High:   r.High * mult,
				Low:    r.Low * mult,
				Close:  r.Close * mult,
				Volume: r.Volume,
				Amount: r.Amount,
			}
			bar.AvgPrice = (bar.Open + bar.High + bar.Low + bar.Close) / 4.0

			if barsByDate[r.Date] == nil {
				barsByDate[r.Date] = make(map[string]Bar)
			}
			barsByDate[r.Date][code] = bar

			if prevCloseByDate[r.Date] == nil {
				prevCloseByDate[r.Date] = make(map[string]float64)
			}
			if prev, ok := a.prevClose[code]; ok {
				prevCloseByDate[r.Date][code] = prev
			} else {
				prevCloseByDate[r.Date][code] = bar.Close
			}
			a.prevClose[code] = bar.Close
		}
	}

	return barsByDate, prevCloseByDate
}

// ratioFor resolves the forward-mode rescale ratio for code. Preference
// order: a factor known beyond the window, the last positive factor inside
// this chunk, the ratio carried from an earlier chunk, then 1.0.
func (a *Adjuster) ratioFor(code string, items []DailyRow) float64 {
	if a.mode != AdjustForward {
		return 1.0
	}
	if r, ok := a.ratio[code]; ok {
		return r
	}
	for i := len(items) - 1; i >= 0; i-- {
		if f := items[i].AdjFactor; f > 0 {
			r := 1.0 / f
			a.ratio[code] = r
			return r
		}
	}
	return 1.0
}
