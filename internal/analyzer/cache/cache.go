package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"etf-trend-analyzer/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
)

// Kind names one cached resource kind. The kind selects the TTL policy and
// prefixes the key so price and news entries never collide.
type Kind string

const (
	KindPrice Kind = "price"
	KindNews  Kind = "news"
)

const (
	localDefaultTTL      = 5 * time.Minute
	localCleanupInterval = 10 * time.Minute
)

// Cache is a cache-aside wrapper around expensive external calls. Lookups go
// through an in-process layer, then the key-value store, then the fetch
// function. Both cache levels fail open: a store error or an undecodable
// payload is a miss, never a run failure.
type Cache struct {
	store Store
	local *gocache.Cache
	log   *logger.Logger
}

// New creates a cache backed by the given store.
func New(store Store, log *logger.Logger) *Cache {
	return &Cache{
		store: store,
		local: gocache.New(localDefaultTTL, localCleanupInterval),
		log:   log,
	}
}

// Key builds the cache key for one resource: {kind}:{identity}:{bucket}.
// The bucket is a coarsened timestamp (calendar day), so repeated runs
// within the same bucket share an entry even when exact fetch timestamps
// differ.
func Key(kind Kind, identity, bucket string) string {
	return fmt.Sprintf("%s:%s:%s", kind, identity, bucket)
}

// Outcome describes how one GetOrFetch call was served.
type Outcome struct {
	// Hit is true when the payload came from either cache level.
	Hit bool
	// StoreDegraded is true when the key-value store errored on get or set
	// and the call fell through to the fetch function.
	StoreDegraded bool
}

// GetOrFetch returns the cached payload for the key, or invokes fetch on a
// miss and stores the serialized result with the given TTL. Concurrent
// callers missing on the same key may each fetch and overwrite
// (last-write-wins); fetches are idempotent reads so no de-duplication is
// needed.
func GetOrFetch[T any](ctx context.Context, c *Cache, kind Kind, identity, bucket string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, Outcome, error) {
	var zero T
	key := Key(kind, identity, bucket)
	outcome := Outcome{}

	if raw, found := c.local.Get(key); found {
		if payload, ok := raw.([]byte); ok {
			var value T
			if err := json.Unmarshal(payload, &value); err == nil {
				outcome.Hit = true
				return value, outcome, nil
			}
			c.local.Delete(key)
		}
	}

	payload, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var value T
		if unmarshalErr := json.Unmarshal(payload, &value); unmarshalErr == nil {
			// The local layer is not re-armed here: the store entry's TTL
			// clock is already running, and a fresh local TTL would keep
			// serving the entry after the store has expired it.
			outcome.Hit = true
			return value, outcome, nil
		}
		// Corrupt entry: treat as a miss and let the fetch overwrite it.
		c.log.Warn("Discarding undecodable cache entry", logger.StringField("key", key))
	case errors.Is(err, ErrNotFound):
		c.log.Debug("Cache miss", logger.StringField("key", key))
	default:
		outcome.StoreDegraded = true
		c.log.Warn("Cache store unavailable, treating as miss",
			logger.StringField("key", key), logger.ErrorField(err))
	}

	value, err := fetch(ctx)
	if err != nil {
		return zero, outcome, err
	}

	serialized, err := json.Marshal(value)
	if err != nil {
		c.log.Error("Failed to serialize payload for cache",
			logger.StringField("key", key), logger.ErrorField(err))
		return value, outcome, nil
	}

	// The in-process layer mirrors the store rather than replacing it: when
	// the store write fails the entry is not kept locally either, so a dead
	// store degrades every call to a fetch instead of pinning stale data.
	if err := c.store.Set(ctx, key, serialized, ttl); err != nil {
		outcome.StoreDegraded = true
		c.log.Warn("Failed to store payload in cache",
			logger.StringField("key", key), logger.ErrorField(err))
	} else {
		c.local.Set(key, serialized, ttl)
	}

	return value, outcome, nil
}
