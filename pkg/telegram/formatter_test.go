package telegram

import (
	"testing"
	"time"

	"etf-trend-analyzer/internal/analyzer/dto"
	"etf-trend-analyzer/internal/entity"

	"github.com/stretchr/testify/assert"
)

func testReport() *dto.Report {
	return &dto.Report{
		TrendResult: entity.TrendResult{
			Symbol:       "VWRA.L",
			AsOf:         time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
			CurrentPrice: 143.78,
			ChangePct:    3.07,
			ShortMA:      143.12,
			LongMA:       142.20,
			Verdict:      entity.VerdictBullish,
		},
		News: []entity.NewsArticle{
			{
				Title:       "Markets rally on strong earnings",
				URL:         "https://example.com/a",
				PublishedAt: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
				Source:      "Example Times",
			},
		},
	}
}

func TestFormatMarketReport_Bullish(t *testing.T) {
	got := FormatMarketReport(testReport(), 5, 10)

	assert.Contains(t, got, "*Market Analysis — VWRA.L*")
	assert.Contains(t, got, "Current Price: `$143.78`")
	assert.Contains(t, got, "Change: `+3.07%`")
	assert.Contains(t, got, "Short MA (5d): `$143.12`")
	assert.Contains(t, got, "Long MA (10d): `$142.20`")
	assert.Contains(t, got, "Trend: _Bullish 📈_")
	assert.Contains(t, got, "[Markets rally on strong earnings](https://example.com/a)")
	assert.Contains(t, got, "📅 2025-06-10 — Example Times")
	assert.NotContains(t, got, "degraded mode")
}

func TestFormatMarketReport_BearishShowsNegativeChange(t *testing.T) {
	report := testReport()
	report.TrendResult.ChangePct = -1.42
	report.TrendResult.Verdict = entity.VerdictBearish

	got := FormatMarketReport(report, 5, 10)

	assert.Contains(t, got, "Change: `-1.42%`")
	assert.Contains(t, got, "*Price Change* 📉")
	assert.Contains(t, got, "Trend: _Bearish 📉_")
}

func TestFormatMarketReport_NeutralVerdict(t *testing.T) {
	report := testReport()
	report.TrendResult.ChangePct = 0
	report.TrendResult.Verdict = entity.VerdictNeutral

	got := FormatMarketReport(report, 5, 10)

	assert.Contains(t, got, "Trend: _Neutral ➖_")
	assert.Contains(t, got, "Change: `+0.00%`")
}

func TestFormatMarketReport_NoNews(t *testing.T) {
	report := testReport()
	report.News = nil

	got := FormatMarketReport(report, 5, 10)

	assert.Contains(t, got, "⚠️ No relevant news articles found.")
	assert.NotContains(t, got, "*Recent Market News*")
}

func TestFormatMarketReport_DegradedFooter(t *testing.T) {
	report := testReport()
	report.Degraded = true

	got := FormatMarketReport(report, 5, 10)

	assert.Contains(t, got, "degraded mode")
}

func TestFormatMarketReport_ArticleWithoutSource(t *testing.T) {
	report := testReport()
	report.News[0].Source = ""

	got := FormatMarketReport(report, 5, 10)

	assert.Contains(t, got, "📅 2025-06-10\n")
	assert.NotContains(t, got, "📅 2025-06-10 —")
}
