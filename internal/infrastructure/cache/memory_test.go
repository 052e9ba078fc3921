package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fliphawk/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedProgress struct {
	ScanID   string `json:"scanId"`
	Progress int    `json:"progress"`
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	t.Run("store and retrieve string", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "k1", "value", time.Minute))

		var got string
		require.NoError(t, cache.Get(ctx, "k1", &got))
		assert.Equal(t, "value", got)
	})

	t.Run("store and retrieve struct", func(t *testing.T) {
		want := cachedProgress{ScanID: "abc", Progress: 50}
		require.NoError(t, cache.Set(ctx, "k2", want, time.Minute))

		var got cachedProgress
		require.NoError(t, cache.Get(ctx, "k2", &got))
		assert.Equal(t, want, got)
	})

	t.Run("stored value is a copy", func(t *testing.T) {
		value := &cachedProgress{ScanID: "abc", Progress: 10}
		require.NoError(t, cache.Set(ctx, "k3", value, time.Minute))
		value.Progress = 90

		var got cachedProgress
		require.NoError(t, cache.Get(ctx, "k3", &got))
		assert.Equal(t, 10, got.Progress)
	})

	t.Run("expired entries miss", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "k4", "short", time.Millisecond))
		time.Sleep(10 * time.Millisecond)

		var got string
		err := cache.Get(ctx, "k4", &got)
		assert.True(t, errors.Is(err, domain.ErrCacheMiss))
	})

	t.Run("unknown key misses", func(t *testing.T) {
		var got string
		assert.ErrorIs(t, cache.Get(ctx, "missing", &got), domain.ErrCacheMiss)
	})

	t.Run("unencodable value fails", func(t *testing.T) {
		err := cache.Set(ctx, "k5", make(chan int), time.Minute)
		assert.Error(t, err)
	})
}

func TestMemoryCache_DeleteAndExists(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", 1, time.Minute))

	exists, err := cache.Exists(ctx, "key")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, "key"))

	exists, err = cache.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCache_SizeClearAndSweep(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, cache.Set(ctx, "b", 2, time.Millisecond))
	assert.Equal(t, 2, cache.Size())

	time.Sleep(5 * time.Millisecond)
	cache.removeExpired()
	assert.Equal(t, 1, cache.Size())

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "scan:progress:" + string(rune('a'+i))
			_ = cache.Set(ctx, key, cachedProgress{Progress: i}, time.Minute)
			var got cachedProgress
			_ = cache.Get(ctx, key, &got)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, cache.Size())
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	cache := NewMemoryCache(0)
	assert.NoError(t, cache.Close())
	assert.NoError(t, cache.Close())
}
