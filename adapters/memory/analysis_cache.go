package memory

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"autosense/domain/analysis"
	"autosense/domain/core"
)

// AnalysisCache memoizes results per dataset and query.
type AnalysisCache struct {
	cache *ttlcache.Cache[string, analysis.Result]
}

// NewAnalysisCache creates a cache holding at most capacity results for ttl.
func NewAnalysisCache(capacity int, ttl time.Duration) *AnalysisCache {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, analysis.Result](ttl),
		ttlcache.WithCapacity[string, analysis.Result](uint64(capacity)),
	)
	return &AnalysisCache{cache: cache}
}

// Get returns a copy of the cached result so callers may annotate it.
func (c *AnalysisCache) Get(_ context.Context, key string) (*analysis.Result, error) {
	item := c.cache.Get(key)
	if item == nil {
		return nil, core.ErrCacheMiss
	}
	result := item.Value()
	return &result, nil
}

func (c *AnalysisCache) Set(_ context.Context, key string, result *analysis.Result) error {
	if result == nil {
		return nil
	}
	c.cache.Set(key, *result, ttlcache.DefaultTTL)
	return nil
}

func (c *AnalysisCache) Len() int {
	return c.cache.Len()
}
