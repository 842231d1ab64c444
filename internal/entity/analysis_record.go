package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// AnalysisRecord is the durable audit trail of one completed analysis run.
// Records are append-only: no updates, no deletes except external retention
// pruning.
type AnalysisRecord struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Symbol       string         `gorm:"not null;index:idx_analysis_records_symbol_as_of,priority:1" json:"symbol"`
	AsOf         time.Time      `gorm:"not null;index:idx_analysis_records_symbol_as_of,priority:2" json:"as_of"`
	TrendResult  datatypes.JSON `gorm:"type:jsonb;not null" json:"trend_result"`
	NewsSnapshot datatypes.JSON `gorm:"type:jsonb" json:"news_snapshot"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the AnalysisRecord model.
func (AnalysisRecord) TableName() string {
	return "analysis_records"
}

// NewAnalysisRecord builds a record from a trend result and the news
// snapshot taken in the same run.
func NewAnalysisRecord(result TrendResult, news []NewsArticle) (*AnalysisRecord, error) {
	trendJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trend result: %w", err)
	}
	if news == nil {
		news = []NewsArticle{}
	}
	newsJSON, err := json.Marshal(news)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal news snapshot: %w", err)
	}
	return &AnalysisRecord{
		Symbol:       result.Symbol,
		AsOf:         result.AsOf,
		TrendResult:  trendJSON,
		NewsSnapshot: newsJSON,
	}, nil
}

// DecodeTrendResult unmarshals the embedded trend result.
func (r *AnalysisRecord) DecodeTrendResult() (TrendResult, error) {
	var result TrendResult
	if err := json.Unmarshal(r.TrendResult, &result); err != nil {
		return TrendResult{}, fmt.Errorf("failed to unmarshal trend result: %w", err)
	}
	return result, nil
}

// DecodeNewsSnapshot unmarshals the embedded news snapshot.
func (r *AnalysisRecord) DecodeNewsSnapshot() ([]NewsArticle, error) {
	if len(r.NewsSnapshot) == 0 {
		return nil, nil
	}
	var news []NewsArticle
	if err := json.Unmarshal(r.NewsSnapshot, &news); err != nil {
		return nil, fmt.Errorf("failed to unmarshal news snapshot: %w", err)
	}
	return news, nil
}
