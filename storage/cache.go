package storage

import (
	"context"
	"sort"
	"strings"
	"time"

	. "vemoji/common"
)

var cacheLog = NewLogger("CACHE")

// Cache layers expiry and eviction over a Store. Caching is advisory:
// every storage failure is logged and swallowed so resolution never
// depends on it.
type Cache struct {
	store       Store
	ttl         time.Duration
	maxEntries  int
	pruneBuffer int
	now         func() time.Time
}

func NewCache(store Store) *Cache {
	return &Cache{
		store:       store,
		ttl:         CacheTTL,
		maxEntries:  CacheMaxEntries,
		pruneBuffer: CachePruneBuffer,
		now:         time.Now,
	}
}

// Get returns the cached record, or absent. Entries at or past their TTL
// are misses; the stale row stays in storage until the next prune.
func (c *Cache) Get(ctx context.Context, key string) (*Record, bool) {
	rec, err := c.store.Get(ctx, key)
	if err != nil {
		cacheLog.Printf("Failed to read entry %s: %v", key, err)
		return nil, false
	}
	if rec == nil {
		return nil, false
	}

	age := c.now().UnixMilli() - rec.Timestamp
	if age >= c.ttl.Milliseconds() {
		return nil, false
	}
	return rec, true
}

// Put stamps and writes the entry, replacing any previous one under the
// same key, then prunes.
func (c *Cache) Put(ctx context.Context, key string, content string, source string) {
	rec := Record{
		Content:   content,
		Source:    source,
		Timestamp: c.now().UnixMilli(),
	}

	if err := c.store.Put(ctx, key, rec); err != nil {
		cacheLog.Printf("Failed to write entry %s: %v", key, err)
		return
	}

	c.Prune(ctx)
}

// Prune removes the oldest entries once the store exceeds capacity. The
// buffer overshoots the limit so inserts at capacity don't prune every time.
func (c *Cache) Prune(ctx context.Context) {
	stamps, err := c.store.Keys(ctx)
	if err != nil {
		cacheLog.Printf("Failed to enumerate entries: %v", err)
		return
	}

	if len(stamps) <= c.maxEntries {
		return
	}

	sort.Slice(stamps, func(i, j int) bool {
		if stamps[i].Timestamp != stamps[j].Timestamp {
			return stamps[i].Timestamp < stamps[j].Timestamp
		}
		return strings.Compare(stamps[i].Key, stamps[j].Key) < 0
	})

	remove := len(stamps) - c.maxEntries + c.pruneBuffer
	if remove > len(stamps) {
		remove = len(stamps)
	}

	doomed := make([]string, 0, remove)
	for _, stamp := range stamps[:remove] {
		doomed = append(doomed, stamp.Key)
	}

	if err := c.store.Delete(ctx, doomed); err != nil {
		cacheLog.Printf("Failed to prune entries: %v", err)
		return
	}

	cacheLog.Printf("Pruned %d entries", len(doomed))
}

func (c *Cache) Count(ctx context.Context) int {
	count, err := c.store.Count(ctx)
	if err != nil {
		cacheLog.Printf("Failed to count entries: %v", err)
		return 0
	}
	return count
}
