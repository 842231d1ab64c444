package trend

import (
	"fmt"
	"math"

	"etf-trend-analyzer/internal/analyzer/dto"
	"etf-trend-analyzer/internal/entity"
)

// Params tunes the classification. Epsilon gates the verdict so that
// floating-point-equal averages classify as Neutral instead of flapping
// between Bullish and Bearish.
type Params struct {
	ShortWindow        int
	LongWindow         int
	Epsilon            float64
	ChangePctPrecision int
}

// Classify reduces a price series to a trend verdict. It is a pure function:
// identical series and params yield an identical result, with AsOf taken
// from the latest point of the series rather than wall-clock time.
func Classify(series entity.PriceSeries, params Params) (entity.TrendResult, error) {
	if params.ShortWindow < 1 || params.LongWindow < 1 {
		return entity.TrendResult{}, fmt.Errorf("%w: windows must be >= 1, got short=%d long=%d",
			dto.ErrInsufficientData, params.ShortWindow, params.LongWindow)
	}
	if params.ShortWindow >= params.LongWindow {
		return entity.TrendResult{}, fmt.Errorf("%w: short window %d must be less than long window %d",
			dto.ErrInsufficientData, params.ShortWindow, params.LongWindow)
	}
	if series.Len() < params.LongWindow {
		return entity.TrendResult{}, fmt.Errorf("%w: series has %d points, long window needs %d",
			dto.ErrInsufficientData, series.Len(), params.LongWindow)
	}

	closes := series.Closes()
	shortMA := movingAverage(closes, params.ShortWindow)
	longMA := movingAverage(closes, params.LongWindow)

	first := series.First().Close
	if first == 0 {
		return entity.TrendResult{}, fmt.Errorf("%w: first close is zero for %s, change percentage undefined",
			dto.ErrPriceUnavailable, series.Symbol)
	}
	latest := series.Latest().Close
	changePct := roundTo((latest-first)/first*100, params.ChangePctPrecision)

	return entity.TrendResult{
		Symbol:       series.Symbol,
		AsOf:         series.Latest().Date,
		CurrentPrice: latest,
		ChangePct:    changePct,
		ShortMA:      shortMA,
		LongMA:       longMA,
		Verdict:      verdict(shortMA, longMA, params.Epsilon),
	}, nil
}

// movingAverage computes the arithmetic mean of the last window closes.
func movingAverage(closes []float64, window int) float64 {
	sum := 0.0
	for i := len(closes) - window; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(window)
}

func verdict(shortMA, longMA, epsilon float64) entity.TrendVerdict {
	switch {
	case shortMA-longMA > epsilon:
		return entity.VerdictBullish
	case longMA-shortMA > epsilon:
		return entity.VerdictBearish
	default:
		return entity.VerdictNeutral
	}
}

func roundTo(value float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	factor := math.Pow(10, float64(precision))
	return math.Round(value*factor) / factor
}
