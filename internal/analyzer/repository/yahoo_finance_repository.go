package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"etf-trend-analyzer/internal/analyzer/config"
	"etf-trend-analyzer/internal/analyzer/dto"
	"etf-trend-analyzer/internal/entity"
	"etf-trend-analyzer/pkg/logger"

	"golang.org/x/time/rate"
)

// PriceRepository fetches a price history for one symbol over one period.
type PriceRepository interface {
	GetPriceHistory(ctx context.Context, param dto.GetPriceHistoryParam) (entity.PriceSeries, error)
}

type yahooFinanceRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewYahooFinanceRepository creates a PriceRepository backed by the Yahoo
// Finance chart API.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) (PriceRepository, error) {
	if cfg.YahooFinance.MaxRequestPerMinute <= 0 {
		return nil, fmt.Errorf("yahoo_finance.max_request_per_minute must be positive")
	}
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	return &yahooFinanceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}, nil
}

func (r *yahooFinanceRepository) GetPriceHistory(ctx context.Context, param dto.GetPriceHistoryParam) (entity.PriceSeries, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return entity.PriceSeries{}, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		r.cfg.YahooFinance.BaseURL, param.Symbol, param.Period)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entity.PriceSeries{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return entity.PriceSeries{}, fmt.Errorf("price provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return entity.PriceSeries{}, fmt.Errorf("failed to read price provider response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return entity.PriceSeries{}, fmt.Errorf("price provider returned status %d", resp.StatusCode)
	}

	var chartResp dto.YahooChartResponse
	if err := json.Unmarshal(body, &chartResp); err != nil {
		return entity.PriceSeries{}, fmt.Errorf("failed to unmarshal price provider response: %w", err)
	}
	if chartResp.Chart.Error != nil {
		return entity.PriceSeries{}, fmt.Errorf("price provider error: %s (%s)",
			chartResp.Chart.Error.Description, chartResp.Chart.Error.Code)
	}
	if len(chartResp.Chart.Result) == 0 {
		return entity.PriceSeries{}, fmt.Errorf("price provider returned no result for %s", param.Symbol)
	}

	result := chartResp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return entity.PriceSeries{}, fmt.Errorf("price provider returned no quotes for %s", param.Symbol)
	}

	closes := result.Indicators.Quote[0].Close
	series := entity.PriceSeries{
		Symbol: param.Symbol,
		Period: param.Period,
	}
	for i, ts := range result.Timestamp {
		// Days with a null close (holidays, partial data) are skipped.
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		series.Points = append(series.Points, entity.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}

	r.log.DebugContext(ctx, "Fetched price history",
		logger.StringField("symbol", param.Symbol),
		logger.StringField("period", param.Period),
		logger.IntField("points", series.Len()))

	return series, nil
}
