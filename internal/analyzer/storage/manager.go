package storage

import (
	"context"
	"fmt"
	"time"

	"etf-trend-analyzer/internal/analyzer/config"
	"etf-trend-analyzer/internal/analyzer/dto"
	"etf-trend-analyzer/pkg/logger"
	"etf-trend-analyzer/pkg/postgres"
	"etf-trend-analyzer/pkg/redis"

	"gorm.io/gorm"
)

const (
	connectAttempts = 3
	connectBackoff  = 2 * time.Second
)

// Manager owns the lifecycle of the two backing stores: the relational store
// and the key-value cache store. It holds no business state. Either store
// may be down; callers get degraded handles rather than startup failures so
// a report can still be produced without persistence or cache.
type Manager struct {
	log   *logger.Logger
	db    *postgres.DB
	cache *redis.Client
}

// NewManager connects both stores with bounded retry for transient failures.
// A store that stays unreachable is left nil and surfaced per-operation:
// database operations return ErrStorageUnavailable, cache operations degrade
// to misses.
func NewManager(cfg *config.Config, log *logger.Logger) *Manager {
	m := &Manager{log: log}

	pgCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := retryConnect(log, "postgres", func() (*postgres.DB, error) {
		return postgres.NewDB(pgCfg)
	})
	if err != nil {
		log.Error("Relational store unreachable, persistence will be skipped", logger.ErrorField(err))
	} else {
		m.db = db
	}

	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	cache, err := retryConnect(log, "redis", func() (*redis.Client, error) {
		return redis.NewClient(redisCfg)
	})
	if err != nil {
		log.Error("Cache store unreachable, every cache operation will be a miss", logger.ErrorField(err))
	} else {
		m.cache = cache
	}

	return m
}

func retryConnect[T any](log *logger.Logger, name string, connect func() (T, error)) (T, error) {
	var (
		handle T
		err    error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		handle, err = connect()
		if err == nil {
			return handle, nil
		}
		log.Warn("Store connection failed",
			logger.StringField("store", name),
			logger.IntField("attempt", attempt),
			logger.ErrorField(err))
		if attempt < connectAttempts {
			time.Sleep(time.Duration(attempt) * connectBackoff)
		}
	}
	return handle, err
}

// DB returns the shared gorm handle, or ErrStorageUnavailable when the
// relational store never came up.
func (m *Manager) DB() (*gorm.DB, error) {
	if m.db == nil {
		return nil, dto.ErrStorageUnavailable
	}
	return m.db.DB, nil
}

// WithSession runs fn inside a scoped transaction: commit on nil return,
// rollback on error or panic. One session per call, never shared across
// concurrent runs.
func (m *Manager) WithSession(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, err := m.DB()
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Transaction(fn); err != nil {
		return fmt.Errorf("session failed: %w", err)
	}
	return nil
}

// Cache returns the shared redis client, which may be nil when the cache
// store is unreachable. The cache layer treats a nil client as permanent
// miss.
func (m *Manager) Cache() *redis.Client {
	return m.cache
}

// Close releases both store handles.
func (m *Manager) Close() {
	if m.db != nil {
		if sqlDB, err := m.db.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				m.log.Error("Failed to close postgres connection", logger.ErrorField(err))
			}
		}
	}
	if m.cache != nil {
		if err := m.cache.Close(); err != nil {
			m.log.Error("Failed to close redis connection", logger.ErrorField(err))
		}
	}
}
