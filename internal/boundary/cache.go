package boundary

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes boundary fetches for the life of the process. Each region
// code is in one of three states: never requested, in flight, or resolved.
// Concurrent requesters for an in-flight code share the single underlying
// fetch. Only success is remembered; a failed fetch leaves the code
// retryable by the next explicit request.
type Cache struct {
	source Source
	group  singleflight.Group

	mu     sync.RWMutex
	shapes map[string][]Shape

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats contains cache performance counters.
type CacheStats struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// NewCache creates a Cache over the given source.
func NewCache(source Source) *Cache {
	return &Cache{
		source: source,
		shapes: make(map[string][]Shape),
	}
}

// Get returns the shapes for a region code, fetching them on first use.
// The fetch itself runs detached from the caller's context: a requester
// that navigates away must not cancel a download whose result is still
// cacheable for the next visit. The context still gates rate-limit waits
// for the caller that actually triggers the fetch.
func (c *Cache) Get(ctx context.Context, adcode string) ([]Shape, error) {
	c.mu.RLock()
	shapes, ok := c.shapes[adcode]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return shapes, nil
	}
	c.misses.Add(1)

	fetchCtx := context.WithoutCancel(ctx)
	v, err, shared := c.group.Do(adcode, func() (any, error) {
		fetched, err := c.source.FetchBoundaries(fetchCtx, adcode)
		if err != nil {
			return nil, err
		}
		if len(fetched) == 0 {
			return nil, eris.Errorf("boundary: empty feature list for %s", adcode)
		}

		c.mu.Lock()
		// Idempotent: writing the same code twice just replaces identical
		// reference geometry.
		c.shapes[adcode] = fetched
		c.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		zap.L().Warn("boundary: fetch failed",
			zap.String("adcode", adcode),
			zap.Bool("shared", shared),
			zap.Error(err))
		return nil, err
	}
	return v.([]Shape), nil
}

// Peek returns cached shapes without triggering a fetch. Rendering paths
// use it so an unresolved layer draws nothing instead of blocking.
func (c *Cache) Peek(adcode string) ([]Shape, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	shapes, ok := c.shapes[adcode]
	return shapes, ok
}

// Prefetch warms the cache for the given codes with bounded concurrency.
// Individual failures are logged and skipped; the return value is the
// number of codes resolved (fresh or already cached).
func (c *Cache) Prefetch(ctx context.Context, codes []string, parallel int) int {
	if parallel <= 0 {
		parallel = 4
	}

	var g errgroup.Group
	g.SetLimit(parallel)

	var resolved atomic.Int64
	for _, code := range codes {
		code := code // per-iteration copy; this module builds with Go 1.21 loop semantics
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if _, err := c.Get(ctx, code); err != nil {
				zap.L().Warn("boundary: prefetch failed", zap.String("adcode", code), zap.Error(err))
				return nil
			}
			resolved.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(resolved.Load())
}

// Stats returns cache performance counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	entries := len(c.shapes)
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries: entries,
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate,
	}
}
