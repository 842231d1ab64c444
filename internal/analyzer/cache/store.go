package cache

import (
	"context"
	"errors"
	"time"

	"etf-trend-analyzer/internal/analyzer/dto"
	pkgredis "etf-trend-analyzer/pkg/redis"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound means the key is absent from the store.
var ErrNotFound = errors.New("cache: key not found")

// Store is the key-value backend of the cache layer. The production
// implementation is Redis; tests substitute in-memory and failing fakes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

type redisStore struct {
	client *pkgredis.Client
}

// NewRedisStore wraps a redis client as a Store. A nil client is a valid
// degraded handle: every operation reports the store unavailable.
func NewRedisStore(client *pkgredis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.client == nil {
		return nil, dto.ErrCacheUnavailable
	}
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return payload, nil
}

func (s *redisStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if s.client == nil {
		return dto.ErrCacheUnavailable
	}
	return s.client.Set(ctx, key, payload, ttl).Err()
}
