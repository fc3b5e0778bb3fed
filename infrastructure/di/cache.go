package di

import (
	"context"
	"sync"
	"time"
)

// CacheRecorder counts cache lookups.
type CacheRecorder interface {
	RecordCache(hit bool)
}

// InMemoryCache is a TTL cache for query results.
type InMemoryCache struct {
	mu       sync.RWMutex
	items    map[string]cacheItem
	recorder CacheRecorder
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// NewInMemoryCache creates a cache that sweeps expired items every interval.
// recorder may be nil.
func NewInMemoryCache(recorder CacheRecorder, interval time.Duration) *InMemoryCache {
	cache := &InMemoryCache{
		items:    make(map[string]cacheItem),
		recorder: recorder,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go cache.cleanupExpired(interval)
	return cache
}

// Get retrieves a value from cache
func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	hit := exists && c.now().Before(item.expiresAt)
	if c.recorder != nil {
		c.recorder.RecordCache(hit)
	}
	if !hit {
		return nil, false
	}
	return item.value, true
}

// Set stores a value in cache with TTL in seconds
func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheItem{
		value:     value,
		expiresAt: c.now().Add(time.Duration(ttl) * time.Second),
	}
	return nil
}

// Delete removes a value from cache
func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Clear removes all values from cache
func (c *InMemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]cacheItem)
	return nil
}

// Close stops the sweeper.
func (c *InMemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *InMemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *InMemoryCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
		}
	}
}
