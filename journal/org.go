package journal

import (
	"bytes"
	"text/template"
	"time"

	"github.com/rustyeddy/stocksim/backtest"
)

// orgReport is the template input for one run's Org block.
type orgReport struct {
	RunID        string
	Strategy     string
	StartDate    string
	EndDate      string
	Status       string
	Created      time.Time
	Params       string
	Summary      backtest.Summary
	Buys         int
	Sells        int
	TotalFees    float64
	EquityPoints int
}

var orgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

// ExportRunOrg loads a run with its trades and returns an Org-mode report.
func (j *SQLite) ExportRunOrg(runID string) (string, error) {
	rec, err := j.GetRun(runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(runID)
	if err != nil {
		return "", err
	}
	curve, err := j.LoadEquityCurve(runID)
	if err != nil {
		return "", err
	}

	rep := orgReport{
		RunID:     rec.RunID,
		Strategy:  rec.Strategy,
		StartDate: rec.StartDate,
		EndDate:   rec.EndDate,
		Status:    rec.Status,
		Created:   rec.CreatedAt,
		Params:    string(rec.Params),
		Summary:   rec.Summary,
	}
	for _, t := range trades {
		switch t.Action {
		case backtest.Buy:
			rep.Buys++
		case backtest.Sell:
			rep.Sells++
		}
		rep.TotalFees += t.Fee
	}
	rep.EquityPoints = len(curve)

	t, err := template.New("run").Funcs(orgFuncs).Parse(RunOrgTemplate)
	if err != nil {
		return "", err
	}
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, rep); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const RunOrgTemplate = `
* BACKTEST: {{.Strategy}} {{.StartDate}}..{{.EndDate}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:STRATEGY:    {{.Strategy}}
:START_DATE:  {{.StartDate}}
:END_DATE:    {{.EndDate}}
:STATUS:      {{.Status}}
:RETURN_PCT:  {{printf "%.2f" (mul100 .Summary.TotalReturn)}}
:MAX_DD_PCT:  {{printf "%.2f" (mul100 .Summary.MaxDrawdown)}}
:FINAL_EQ:    {{printf "%.2f" .Summary.FinalEquity}}
:TRADES:      {{.Summary.TotalTrades}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Return:        *{{printf "%.2f" (mul100 .Summary.TotalReturn)}}%*
- Max Drawdown:  *{{printf "%.2f" (mul100 .Summary.MaxDrawdown)}}%*
- Final Equity:  *{{printf "%.2f" .Summary.FinalEquity}}*
- Total Fees:    {{printf "%.2f" .TotalFees}}
- Equity Points: {{.EquityPoints}}

** Trade Distribution
| Side  | Count |
|-------+-------|
| Buys  | {{.Buys}} |
| Sells | {{.Sells}} |
| Total | {{.Summary.TotalTrades}} |

{{- if .Params }}

** Parameters
#+begin_src json
{{.Params}}
#+end_src
{{- end }}
`
