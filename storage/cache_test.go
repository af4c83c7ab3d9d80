package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCache(store Store) (*Cache, *time.Time) {
	now := time.Unix(1700000000, 0)

	cache := &Cache{
		store:       store,
		ttl:         7 * 24 * time.Hour,
		maxEntries:  150,
		pruneBuffer: 10,
		now:         func() time.Time { return now },
	}

	return cache, &now
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(NewMemoryStore())

	cache.Put(ctx, "1f600", "<svg/>", "jsdelivr")

	rec, ok := cache.Get(ctx, "1f600")
	require.True(t, ok)
	require.Equal(t, "<svg/>", rec.Content)
	require.Equal(t, "jsdelivr", rec.Source)

	_, ok = cache.Get(ctx, "1f601")
	require.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cache, now := newTestCache(store)

	cache.Put(ctx, "1f600", "<svg/>", "jsdelivr")

	*now = now.Add(cache.ttl - time.Millisecond)
	_, ok := cache.Get(ctx, "1f600")
	require.True(t, ok)

	*now = now.Add(time.Millisecond)
	_, ok = cache.Get(ctx, "1f600")
	require.False(t, ok)

	// The stale row stays in storage until the next prune
	rec, err := store.Get(ctx, "1f600")
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestCacheRefreshReplaces(t *testing.T) {
	ctx := context.Background()
	cache, now := newTestCache(NewMemoryStore())

	cache.Put(ctx, "1f600", "<svg>old</svg>", "jsdelivr")

	*now = now.Add(time.Hour)
	cache.Put(ctx, "1f600", "<svg>new</svg>", "unpkg")

	rec, ok := cache.Get(ctx, "1f600")
	require.True(t, ok)
	require.Equal(t, "<svg>new</svg>", rec.Content)
	require.Equal(t, 1, cache.Count(ctx))
}

func TestCachePruneEvictsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cache, now := newTestCache(store)
	cache.maxEntries = 20
	cache.pruneBuffer = 5

	for i := 0; i < 21; i++ {
		*now = now.Add(time.Second)
		cache.Put(ctx, fmt.Sprintf("key-%03d", i), "<svg/>", "jsdelivr")
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.LessOrEqual(t, count, cache.maxEntries)

	// The oldest writes are gone, the freshest remain
	for i := 0; i < 6; i++ {
		_, ok := cache.Get(ctx, fmt.Sprintf("key-%03d", i))
		require.False(t, ok, "key-%03d should be evicted", i)
	}
	for i := 6; i < 21; i++ {
		_, ok := cache.Get(ctx, fmt.Sprintf("key-%03d", i))
		require.True(t, ok, "key-%03d should survive", i)
	}
}

func TestCachePruneUnderCapacityIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cache, _ := newTestCache(store)
	cache.maxEntries = 20

	for i := 0; i < 20; i++ {
		cache.Put(ctx, fmt.Sprintf("key-%03d", i), "<svg/>", "jsdelivr")
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 20, count)
}

func TestCacheCorruptEntryEvictedFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cache, now := newTestCache(store)
	cache.maxEntries = 10
	cache.pruneBuffer = 2

	// A corrupt entry reads as timestamp 0, first in line for eviction
	store.Put(ctx, "corrupt", Record{Content: "<svg/>", Timestamp: 0})

	for i := 0; i < 10; i++ {
		*now = now.Add(time.Second)
		cache.Put(ctx, fmt.Sprintf("key-%03d", i), "<svg/>", "jsdelivr")
	}

	rec, err := store.Get(ctx, "corrupt")
	require.NoError(t, err)
	require.Nil(t, rec)
}

type brokenStore struct {
	*MemoryStore
	fail bool
}

func (s *brokenStore) Get(ctx context.Context, key string) (*Record, error) {
	if s.fail {
		return nil, errors.New("storage quota exceeded")
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *brokenStore) Put(ctx context.Context, key string, rec Record) error {
	if s.fail {
		return errors.New("storage quota exceeded")
	}
	return s.MemoryStore.Put(ctx, key, rec)
}

func TestCacheStorageErrorsAreMisses(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{MemoryStore: NewMemoryStore()}
	cache, _ := newTestCache(store)

	cache.Put(ctx, "1f600", "<svg/>", "jsdelivr")

	store.fail = true

	// Errors degrade to misses, never failures
	_, ok := cache.Get(ctx, "1f600")
	require.False(t, ok)

	cache.Put(ctx, "1f601", "<svg/>", "jsdelivr")

	store.fail = false
	_, ok = cache.Get(ctx, "1f601")
	require.False(t, ok)
}
