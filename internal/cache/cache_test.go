package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := NewMemoryCache(10)

	require.NoError(t, cache.Set(ctx, "key", &Entry{Data: []byte("value"), ExpiresAt: time.Now().Add(time.Minute)}))
	assert.True(t, cache.Has(ctx, "key"))

	entry, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), entry.Data)

	require.NoError(t, cache.Delete(ctx, "key"))
	assert.False(t, cache.Has(ctx, "key"))

	_, err = cache.Get(ctx, "key")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryCache_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cache := NewMemoryCache(10)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "short", &Entry{Data: []byte("a"), ExpiresAt: now.Add(time.Second)}))
	require.NoError(t, cache.Set(ctx, "forever", &Entry{Data: []byte("b")}))

	now = now.Add(time.Minute)

	assert.False(t, cache.Has(ctx, "short"))

	_, err := cache.Get(ctx, "short")
	require.ErrorIs(t, err, ErrEntryExpired)

	_, err = cache.Get(ctx, "short")
	require.ErrorIs(t, err, ErrKeyNotFound, "expired entries are dropped on read")

	entry, err := cache.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), entry.Data)
}

func TestMemoryCache_Cleanup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cache := NewMemoryCache(10)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "a", &Entry{ExpiresAt: now.Add(time.Second)}))
	require.NoError(t, cache.Set(ctx, "b", &Entry{ExpiresAt: now.Add(time.Hour)}))

	now = now.Add(time.Minute)
	cache.Cleanup()

	assert.Len(t, cache.entries, 1)
	assert.Contains(t, cache.entries, "b")
}

func TestMemoryCache_EvictsSoonestExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now()
	cache := NewMemoryCache(2)

	require.NoError(t, cache.Set(ctx, "late", &Entry{ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, cache.Set(ctx, "soon", &Entry{ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, cache.Set(ctx, "new", &Entry{ExpiresAt: now.Add(2 * time.Hour)}))

	assert.True(t, cache.Has(ctx, "late"))
	assert.True(t, cache.Has(ctx, "new"))
	assert.False(t, cache.Has(ctx, "soon"))

	// Overwriting an existing key never evicts.
	require.NoError(t, cache.Set(ctx, "late", &Entry{ExpiresAt: now.Add(time.Hour)}))
	assert.True(t, cache.Has(ctx, "new"))
}

func TestMemoryCache_StoresCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := NewMemoryCache(1)

	entry := &Entry{ETag: "v1"}
	require.NoError(t, cache.Set(ctx, "key", entry))
	entry.ETag = "changed"

	got, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "v1", got.ETag)

	got.ETag = "mutated"

	again, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "v1", again.ETag)
}

func TestMemoryCache_Clear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := NewMemoryCache(10)

	require.NoError(t, cache.Set(ctx, "a", &Entry{}))
	require.NoError(t, cache.Set(ctx, "b", &Entry{}))
	require.NoError(t, cache.Clear(ctx))

	assert.False(t, cache.Has(ctx, "a"))
	assert.False(t, cache.Has(ctx, "b"))
}
