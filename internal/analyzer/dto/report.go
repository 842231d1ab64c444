package dto

import "etf-trend-analyzer/internal/entity"

// Report bundles the output of one analysis run for downstream rendering and
// notification. Degraded is true when a non-essential step (news, cache,
// persistence) was skipped because of a transient failure; the trend verdict
// and price figures are always valid.
type Report struct {
	TrendResult entity.TrendResult   `json:"trend_result"`
	PriceSeries entity.PriceSeries   `json:"price_series"`
	News        []entity.NewsArticle `json:"news"`
	Degraded    bool                 `json:"degraded"`
}

// GetPriceHistoryParam identifies one price history request.
type GetPriceHistoryParam struct {
	Symbol string
	Period string
}

// GetNewsParam identifies one news request.
type GetNewsParam struct {
	Query      string
	WindowDays int
	Limit      int
}
