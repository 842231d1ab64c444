package repository

import (
	"context"
	"errors"

	"etf-trend-analyzer/internal/analyzer/storage"
	"etf-trend-analyzer/internal/entity"

	"gorm.io/gorm"
)

// AnalysisRecordRepository is the durable audit trail of completed analysis
// runs. Records are append-only; there is no update path.
type AnalysisRecordRepository interface {
	Create(ctx context.Context, record *entity.AnalysisRecord) error
	GetLatest(ctx context.Context, symbol string) (*entity.AnalysisRecord, error)
	GetRecent(ctx context.Context, symbol string, limit int) ([]entity.AnalysisRecord, error)
}

// NewAnalysisRecordRepository creates a new AnalysisRecordRepository backed
// by the connection manager's relational store.
func NewAnalysisRecordRepository(store *storage.Manager) AnalysisRecordRepository {
	return &analysisRecordRepository{store: store}
}

type analysisRecordRepository struct {
	store *storage.Manager
}

// Create inserts one immutable record inside a scoped session.
func (r *analysisRecordRepository) Create(ctx context.Context, record *entity.AnalysisRecord) error {
	return r.store.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
}

// GetLatest returns the most recent record for the symbol by as_of, then
// created_at. Returns nil without error when no record exists yet.
func (r *analysisRecordRepository) GetLatest(ctx context.Context, symbol string) (*entity.AnalysisRecord, error) {
	db, err := r.store.DB()
	if err != nil {
		return nil, err
	}

	var record entity.AnalysisRecord
	err = db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("as_of DESC, created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetRecent returns up to limit records for the symbol, newest first.
func (r *analysisRecordRepository) GetRecent(ctx context.Context, symbol string, limit int) ([]entity.AnalysisRecord, error) {
	db, err := r.store.DB()
	if err != nil {
		return nil, err
	}

	var records []entity.AnalysisRecord
	err = db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("as_of DESC, created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
