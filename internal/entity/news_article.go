package entity

import (
	"time"

	"github.com/lib/pq"
)

// NewsArticle is one article from a news provider. Within one fetch the set
// is deduplicated by URL.
type NewsArticle struct {
	Title       string         `json:"title"`
	URL         string         `json:"url"`
	PublishedAt time.Time      `json:"published_at"`
	Source      string         `json:"source"`
	Topics      pq.StringArray `json:"topics,omitempty"`
}

// DeduplicateNewsByURL keeps the first occurrence of each URL, preserving
// order.
func DeduplicateNewsByURL(articles []NewsArticle) []NewsArticle {
	seen := make(map[string]struct{}, len(articles))
	result := make([]NewsArticle, 0, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		result = append(result, a)
	}
	return result
}
