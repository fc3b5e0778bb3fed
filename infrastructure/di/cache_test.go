package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	hits, misses int
}

func (r *countingRecorder) RecordCache(hit bool) {
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func newTestCache(t *testing.T, recorder CacheRecorder) (*InMemoryCache, *time.Time) {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache := NewInMemoryCache(recorder, time.Hour)
	cache.now = func() time.Time { return now }
	t.Cleanup(cache.Close)
	return cache, &now
}

func TestInMemoryCache_HitMissAndExpiry(t *testing.T) {
	// Arrange
	recorder := &countingRecorder{}
	cache, now := newTestCache(t, recorder)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "report:u1:r1", "body", 60))

	// Act
	v, ok := cache.Get(ctx, "report:u1:r1")
	_, missing := cache.Get(ctx, "report:u1:other")
	*now = now.Add(61 * time.Second)
	_, expired := cache.Get(ctx, "report:u1:r1")

	// Assert
	assert.True(t, ok)
	assert.Equal(t, "body", v)
	assert.False(t, missing)
	assert.False(t, expired)
	assert.Equal(t, 1, recorder.hits)
	assert.Equal(t, 2, recorder.misses)
}

func TestInMemoryCache_DeleteAndClear(t *testing.T) {
	cache, _ := newTestCache(t, nil)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "a", 1, 60))
	require.NoError(t, cache.Set(ctx, "b", 2, 60))

	require.NoError(t, cache.Delete(ctx, "a"))
	_, ok := cache.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "b")
	assert.True(t, ok)

	require.NoError(t, cache.Clear(ctx))
	_, ok = cache.Get(ctx, "b")
	assert.False(t, ok)
}

func TestInMemoryCache_SweepDropsExpired(t *testing.T) {
	cache, now := newTestCache(t, nil)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "short", 1, 10))
	require.NoError(t, cache.Set(ctx, "long", 2, 600))

	*now = now.Add(time.Minute)
	cache.sweep()

	cache.mu.RLock()
	defer cache.mu.RUnlock()
	assert.NotContains(t, cache.items, "short")
	assert.Contains(t, cache.items, "long")
}

func TestInMemoryCache_CloseIsIdempotent(t *testing.T) {
	cache := NewInMemoryCache(nil, time.Millisecond)
	assert.NotPanics(t, func() {
		cache.Close()
		cache.Close()
	})
}
