package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceSeriesValidate(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
	}

	valid := PriceSeries{Symbol: "VWRA.L", Points: []PricePoint{
		{Date: day(2), Close: 100},
		{Date: day(3), Close: 101},
		{Date: day(4), Close: 102},
	}}
	assert.NoError(t, valid.Validate())

	duplicate := PriceSeries{Symbol: "VWRA.L", Points: []PricePoint{
		{Date: day(2), Close: 100},
		{Date: day(2), Close: 101},
	}}
	assert.Error(t, duplicate.Validate())

	descending := PriceSeries{Symbol: "VWRA.L", Points: []PricePoint{
		{Date: day(3), Close: 100},
		{Date: day(2), Close: 101},
	}}
	assert.Error(t, descending.Validate())

	assert.NoError(t, PriceSeries{Symbol: "VWRA.L"}.Validate())
}

func TestPriceSeriesAccessors(t *testing.T) {
	series := PriceSeries{Symbol: "VWRA.L", Points: []PricePoint{
		{Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), Close: 100},
		{Date: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), Close: 101.5},
	}}

	assert.Equal(t, 2, series.Len())
	assert.False(t, series.IsEmpty())
	assert.Equal(t, 100.0, series.First().Close)
	assert.Equal(t, 101.5, series.Latest().Close)
	assert.Equal(t, []float64{100, 101.5}, series.Closes())
}

func TestDeduplicateNewsByURL(t *testing.T) {
	articles := []NewsArticle{
		{Title: "first", URL: "https://example.com/a"},
		{Title: "second", URL: "https://example.com/b"},
		{Title: "repeat of first", URL: "https://example.com/a"},
	}

	got := DeduplicateNewsByURL(articles)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title, "first occurrence wins")
	assert.Equal(t, "second", got[1].Title)

	assert.NotNil(t, DeduplicateNewsByURL(nil))
	assert.Empty(t, DeduplicateNewsByURL(nil))
}

func TestAnalysisRecordRoundTrip(t *testing.T) {
	result := TrendResult{
		Symbol:       "VWRA.L",
		AsOf:         time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
		CurrentPrice: 143.78,
		ChangePct:    3.07,
		ShortMA:      143.12,
		LongMA:       142.20,
		Verdict:      VerdictBullish,
	}
	news := []NewsArticle{
		{Title: "Markets rally", URL: "https://example.com/a", PublishedAt: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), Source: "Example"},
	}

	record, err := NewAnalysisRecord(result, news)
	require.NoError(t, err)
	assert.Equal(t, "VWRA.L", record.Symbol)
	assert.Equal(t, result.AsOf, record.AsOf)

	decoded, err := record.DecodeTrendResult()
	require.NoError(t, err)
	assert.Equal(t, result, decoded)

	decodedNews, err := record.DecodeNewsSnapshot()
	require.NoError(t, err)
	assert.Equal(t, news, decodedNews)
}

func TestAnalysisRecordNilNewsSnapshot(t *testing.T) {
	record, err := NewAnalysisRecord(TrendResult{Symbol: "VWRA.L", Verdict: VerdictNeutral}, nil)
	require.NoError(t, err)

	decoded, err := record.DecodeNewsSnapshot()
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestTrendVerdictIsBullish(t *testing.T) {
	assert.True(t, TrendResult{Verdict: VerdictBullish}.IsBullish())
	assert.False(t, TrendResult{Verdict: VerdictBearish}.IsBullish())
	assert.False(t, TrendResult{Verdict: VerdictNeutral}.IsBullish())
}
