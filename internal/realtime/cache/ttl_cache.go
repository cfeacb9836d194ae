package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/optsignals/pkg/logger"
)

// Remote is an optional second tier shared between processes (pkg/redis.Cache)
type Remote interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTLCache maps key -> (timestamp, value). An entry is fresh while its age is
// strictly below the TTL; a zero TTL disables caching.
// ⭐ SSOT: 시세/체인 캐싱은 이 구조체에서만
type TTLCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group
	remote  Remote
	logger  *logger.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache counters
type Stats struct {
	Entries int   `json:"entries"`
	Stale   int   `json:"stale"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// New creates a cache with the given TTL
func New[V any](ttl time.Duration, log *logger.Logger) *TTLCache[V] {
	if log == nil {
		log = logger.NewNop()
	}
	return &TTLCache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
		logger:  log,
	}
}

// WithRemote attaches a second tier consulted on local misses
func (c *TTLCache[V]) WithRemote(r Remote) *TTLCache[V] {
	c.remote = r
	return c
}

// WithClock overrides the time source
func (c *TTLCache[V]) WithClock(now func() time.Time) *TTLCache[V] {
	c.now = now
	return c
}

// TTL returns the configured freshness window
func (c *TTLCache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns a fresh value
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.fresh(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value stamped with the current time
func (c *TTLCache[V]) Set(key string, value V) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
	c.mu.Unlock()
}

// computeTimeout bounds a shared computation once it no longer follows a caller
const computeTimeout = 30 * time.Second

// GetOrCompute returns the cached value or computes, stores and returns it.
// Concurrent misses on the same key share one computation, which runs detached
// from any single caller's cancellation; each caller stops waiting when its own
// ctx is done. Errors are not cached.
func (c *TTLCache[V]) GetOrCompute(ctx context.Context, key string, fn func(context.Context) (V, error)) (V, error) {
	var zero V
	if v, ok := c.Get(key); ok {
		c.hits.Add(1)
		return v, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()

		if v, ok := c.Get(key); ok {
			return v, nil
		}

		if v, ok := c.fromRemote(shared, key); ok {
			c.Set(key, v)
			return v, nil
		}

		c.misses.Add(1)
		v, err := fn(shared)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		c.toRemote(shared, key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

func (c *TTLCache[V]) fromRemote(ctx context.Context, key string) (V, bool) {
	var v V
	if c.remote == nil || !c.remote.Enabled() || c.ttl <= 0 {
		return v, false
	}
	found, err := c.remote.Get(ctx, key, &v)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Remote cache read failed")
		return v, false
	}
	return v, found
}

func (c *TTLCache[V]) toRemote(ctx context.Context, key string, v V) {
	if c.remote == nil || !c.remote.Enabled() || c.ttl <= 0 {
		return
	}
	if err := c.remote.Set(ctx, key, v, c.ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Remote cache write failed")
	}
}

func (c *TTLCache[V]) fresh(e entry[V]) bool {
	return c.now().Sub(e.storedAt) < c.ttl
}

// Delete removes a key
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every entry
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len returns the number of stored entries, fresh or not
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CleanStale removes expired entries and returns how many were dropped
func (c *TTLCache[V]) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if !c.fresh(e) {
			delete(c.entries, key)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Debug("Cleaned stale cache entries")
	}
	return count
}

// Stats returns cache statistics
func (c *TTLCache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		Entries: len(c.entries),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
	for _, e := range c.entries {
		if !c.fresh(e) {
			stats.Stale++
		}
	}
	return stats
}
