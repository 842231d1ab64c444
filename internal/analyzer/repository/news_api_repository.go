package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"etf-trend-analyzer/internal/analyzer/config"
	"etf-trend-analyzer/internal/analyzer/dto"
	"etf-trend-analyzer/internal/entity"
	"etf-trend-analyzer/pkg/logger"

	"golang.org/x/time/rate"
)

// NewsRepository fetches articles matching a query within a lookback window.
// An empty result is valid, not an error.
type NewsRepository interface {
	GetNews(ctx context.Context, param dto.GetNewsParam) ([]entity.NewsArticle, error)
}

type newsAPIRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewNewsAPIRepository creates a NewsRepository backed by the NewsAPI
// "everything" endpoint.
func NewNewsAPIRepository(cfg *config.Config, log *logger.Logger) (NewsRepository, error) {
	if cfg.NewsAPI.APIKey == "" {
		return nil, fmt.Errorf("newsapi.api_key must be set")
	}
	maxPerMinute := cfg.NewsAPI.MaxRequestPerMinute
	if maxPerMinute <= 0 {
		maxPerMinute = 30
	}
	return &newsAPIRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxPerMinute)), 1),
	}, nil
}

func (r *newsAPIRepository) GetNews(ctx context.Context, param dto.GetNewsParam) ([]entity.NewsArticle, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	from := time.Now().AddDate(0, 0, -param.WindowDays).Format(time.DateOnly)
	query := url.Values{}
	query.Set("q", param.Query)
	query.Set("from", from)
	query.Set("language", "en")
	query.Set("sortBy", "relevancy")
	query.Set("pageSize", fmt.Sprintf("%d", param.Limit))

	reqURL := fmt.Sprintf("%s/v2/everything?%s", r.cfg.NewsAPI.BaseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", r.cfg.NewsAPI.APIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read news provider response: %w", err)
	}

	var newsResp dto.NewsAPIResponse
	if err := json.Unmarshal(body, &newsResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal news provider response: %w", err)
	}
	if newsResp.Status != "ok" {
		return nil, fmt.Errorf("news provider error: %s (%s)", newsResp.Message, newsResp.Code)
	}

	articles := make([]entity.NewsArticle, 0, len(newsResp.Articles))
	for _, a := range newsResp.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		articles = append(articles, entity.NewsArticle{
			Title:       a.Title,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Source:      a.Source.Name,
		})
	}
	articles = entity.DeduplicateNewsByURL(articles)

	r.log.DebugContext(ctx, "Fetched news",
		logger.StringField("query", param.Query),
		logger.IntField("articles", len(articles)))

	return articles, nil
}
