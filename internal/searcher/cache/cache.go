// Package cache memoises search results in Redis. Keys embed the index
// generation, so a rebuild makes every older entry unreachable without an
// explicit flush.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "lexsearch:q:"

// Backend is satisfied by *redis.Client from pkg/redis.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

type QueryCache struct {
	backend Backend
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New wraps backend. breaker and m may be nil.
func New(backend Backend, ttl time.Duration, breaker *resilience.CircuitBreaker, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		backend: backend,
		ttl:     ttl,
		breaker: breaker,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached result for the given generation, query and limit.
// Backend failures are logged and reported as misses.
func (c *QueryCache) Get(ctx context.Context, generation uint64, query string, limit int) (*executor.SearchResult, bool) {
	key := buildKey(generation, query, limit)
	var data []byte
	var found bool
	err := c.call(func() error {
		var err error
		data, found, err = c.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	if !found {
		c.recordMiss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	return &result, true
}

// Set stores result; failures are logged only.
func (c *QueryCache) Set(ctx context.Context, generation uint64, query string, limit int, result *executor.SearchResult) {
	key := buildKey(generation, query, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.call(func() error {
		return c.backend.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns a cached result or runs compute once per key, even
// under concurrent identical requests. The bool reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	generation uint64,
	query string,
	limit int,
	compute func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, generation, query, limit); ok {
		return result, true, nil
	}
	key := buildKey(generation, query, limit)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, generation, query, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate deletes every cached result.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	var deleted int64
	err := c.call(func() error {
		var err error
		deleted, err = c.backend.DeletePrefix(ctx, keyPrefix)
		return err
	})
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// call routes backend calls through the breaker. Cancelled requests say
// nothing about Redis and do not count as failures.
func (c *QueryCache) call(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	return c.breaker.ExecuteIgnoring(fn, func(err error) bool {
		return errors.Is(err, context.Canceled)
	})
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey hashes the raw query: case, spacing and quotes all change the
// ranking, so no normalisation is applied.
func buildKey(generation uint64, query string, limit int) string {
	raw := fmt.Sprintf("%d\x00%d\x00%s", generation, limit, query)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%d:%x", keyPrefix, generation, hash[:16])
}
