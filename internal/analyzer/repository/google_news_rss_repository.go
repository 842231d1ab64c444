package repository

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"etf-trend-analyzer/internal/analyzer/config"
	"etf-trend-analyzer/internal/analyzer/dto"
	"etf-trend-analyzer/internal/entity"
	"etf-trend-analyzer/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

type googleNewsRSSRepository struct {
	cfg    *config.Config
	log    *logger.Logger
	parser *gofeed.Parser
}

// NewGoogleNewsRSSRepository creates a NewsRepository backed by the Google
// News RSS search feed. It needs no API key and is the default provider.
func NewGoogleNewsRSSRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	return &googleNewsRSSRepository{
		cfg:    cfg,
		log:    log,
		parser: gofeed.NewParser(),
	}
}

func (r *googleNewsRSSRepository) GetNews(ctx context.Context, param dto.GetNewsParam) ([]entity.NewsArticle, error) {
	lang := r.cfg.GoogleRSS.Language
	if lang == "" {
		lang = "en"
	}
	country := r.cfg.GoogleRSS.Country
	if country == "" {
		country = "US"
	}

	feedURL := fmt.Sprintf("%s/rss/search?q=%s&hl=%s&gl=%s&ceid=%s:%s",
		r.cfg.GoogleRSS.BaseURL, url.QueryEscape(param.Query), lang, country, country, lang)

	r.log.DebugContext(ctx, "Fetching RSS feed", logger.StringField("url", feedURL))

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -param.WindowDays)
	articles := make([]entity.NewsArticle, 0, param.Limit)
	for _, item := range feed.Items {
		if len(articles) >= param.Limit {
			break
		}
		if item.Link == "" || item.Title == "" {
			continue
		}
		publishedAt := time.Now().UTC()
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC()
		}
		if publishedAt.Before(cutoff) {
			continue
		}
		articles = append(articles, entity.NewsArticle{
			Title:       item.Title,
			URL:         item.Link,
			PublishedAt: publishedAt,
			Source:      extractSource(item),
			Topics:      item.Categories,
		})
	}
	articles = entity.DeduplicateNewsByURL(articles)

	r.log.DebugContext(ctx, "Fetched news from RSS",
		logger.StringField("query", param.Query),
		logger.IntField("articles", len(articles)))

	return articles, nil
}

// extractSource pulls the publisher name out of the Google News item. The
// description is an HTML snippet whose trailing <font> element carries the
// source; fall back to the link host when it is missing.
func extractSource(item *gofeed.Item) string {
	if item.Description != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(item.Description))
		if err == nil {
			if source := strings.TrimSpace(doc.Find("font").Last().Text()); source != "" {
				return source
			}
		}
	}
	if u, err := url.Parse(item.Link); err == nil {
		return u.Host
	}
	return ""
}
