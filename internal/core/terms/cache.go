package terms

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Cache stores resolver answers for the lifetime of one batch run. It must
// be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]Term, bool, error)
	Set(ctx context.Context, key string, terms []Term) error
	// Purge drops every entry written during the run.
	Purge(ctx context.Context) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]Term
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]Term)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]Term, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	terms, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]Term(nil), terms...), true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, terms []Term) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]Term(nil), terms...)
	return nil
}

func (c *MemoryCache) Purge(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]Term)
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CachedResolver answers repeated texts from a Cache. Namespace separates
// resolvers sharing one cache. Errors are never cached, and a failing cache
// only costs a lookup.
type CachedResolver struct {
	Resolver  Resolver
	Cache     Cache
	Namespace string
	Logger    *slog.Logger
}

func NewCachedResolver(r Resolver, cache Cache, namespace string, logger *slog.Logger) *CachedResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedResolver{Resolver: r, Cache: cache, Namespace: namespace, Logger: logger}
}

func (c *CachedResolver) Resolve(ctx context.Context, text string) ([]Term, error) {
	key := fmt.Sprintf("%s|%s", c.Namespace, normalize(text))

	terms, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		c.Logger.Warn("cache lookup failed", "key", key, "error", err)
	} else if ok {
		return terms, nil
	}

	terms, err = c.Resolver.Resolve(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.Set(ctx, key, terms); err != nil {
		c.Logger.Warn("cache store failed", "key", key, "error", err)
	}
	return terms, nil
}
