package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// InMemoryCache implements the Cache interface using patrickmn/go-cache
type InMemoryCache struct {
	store *gocache.Cache
}

// In-memory cache instance
var inMemoryCache *InMemoryCache

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		store: gocache.New(ExpiryDefaultInMemory, 2*ExpiryDefaultInMemory),
	}
}

// InitializeInMemoryCache initializes the global in-memory cache instance
func InitializeInMemoryCache() {
	if inMemoryCache == nil {
		inMemoryCache = NewInMemoryCache()
	}
}

// GetInMemoryCache returns the global in-memory cache instance
func GetInMemoryCache() *InMemoryCache {
	if inMemoryCache == nil {
		InitializeInMemoryCache()
	}
	return inMemoryCache
}

// Get retrieves a value from the cache
func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	return c.store.Get(key)
}

// Set stores a value in the cache with an expiration
func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if expiration <= 0 {
		expiration = ExpiryDefaultInMemory
	}
	c.store.Set(key, value, expiration)
}

// Delete removes a value from the cache
func (c *InMemoryCache) Delete(ctx context.Context, key string) {
	c.store.Delete(key)
}

// DeleteByPrefix removes all values whose key starts with the given prefix
func (c *InMemoryCache) DeleteByPrefix(ctx context.Context, prefix string) {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}
}

// Flush removes all values from the cache
func (c *InMemoryCache) Flush(ctx context.Context) {
	c.store.Flush()
}
