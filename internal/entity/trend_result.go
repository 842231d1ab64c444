package entity

import "time"

// TrendVerdict is the categorical classification of the short-term trend.
type TrendVerdict string

const (
	VerdictBullish TrendVerdict = "BULLISH"
	VerdictBearish TrendVerdict = "BEARISH"
	VerdictNeutral TrendVerdict = "NEUTRAL"
)

// TrendResult is the outcome of classifying one price series. It is
// immutable and produced exactly once per analysis run. AsOf is the latest
// date of the underlying series, not wall-clock time, so identical inputs
// yield identical results.
type TrendResult struct {
	Symbol       string       `json:"symbol"`
	AsOf         time.Time    `json:"as_of"`
	CurrentPrice float64      `json:"current_price"`
	ChangePct    float64      `json:"change_pct"`
	ShortMA      float64      `json:"short_ma"`
	LongMA       float64      `json:"long_ma"`
	Verdict      TrendVerdict `json:"verdict"`
}

// IsBullish reports whether the verdict is bullish.
func (r TrendResult) IsBullish() bool {
	return r.Verdict == VerdictBullish
}
