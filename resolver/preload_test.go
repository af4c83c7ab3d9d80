package resolver

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestPreloader(r *Resolver, tiers []PreloadTier, tierDelay time.Duration) *Preloader {
	return &Preloader{
		resolver:  r,
		tiers:     tiers,
		tierDelay: tierDelay,
		bandwidth: NewBandwidthLimiter(1024 * 1024),
		inflight:  make(map[string]bool),
		preloaded: make(map[string]string),
	}
}

func serveKeys(origin *fakeOrigin, keys ...string) {
	for _, key := range keys {
		origin.responses["/a/"+key+".svg"] = testSVG
	}
}

func TestPreloaderTierOrdering(t *testing.T) {
	origin := newFakeOrigin()
	defer origin.server.Close()

	serveKeys(origin, "1f600", "1f601", "1f602", "1f603", "1f604", "1f605")

	res, _ := newTestResolver([]Source{origin.source("a", "/a", false)})

	pre := newTestPreloader(res, []PreloadTier{
		{Name: "first", Glyphs: []string{"😀", "😁", "😂"}, ItemDelay: 10 * time.Millisecond},
		{Name: "second", Glyphs: []string{"😃", "😄", "😅"}, ItemDelay: 10 * time.Millisecond},
	}, 300*time.Millisecond)

	pre.Start(context.Background()).Wait()

	requests := origin.requested()
	require.Len(t, requests, 6)

	// Every first-tier fetch lands before any second-tier fetch starts
	lastFirst := -1
	firstSecond := len(requests)
	for i, path := range requests {
		if slices.Contains([]string{"/a/1f600.svg", "/a/1f601.svg", "/a/1f602.svg"}, path) && i > lastFirst {
			lastFirst = i
		}
		if slices.Contains([]string{"/a/1f603.svg", "/a/1f604.svg", "/a/1f605.svg"}, path) && i < firstSecond {
			firstSecond = i
		}
	}
	require.Less(t, lastFirst, firstSecond)

	progress := pre.Progress()
	require.Equal(t, 6, progress.Loaded)
	require.Equal(t, 0, progress.Failed)
}

func TestPreloaderSkipsAlreadyPreloaded(t *testing.T) {
	origin := newFakeOrigin()
	defer origin.server.Close()

	serveKeys(origin, "1f600", "1f601")

	res, _ := newTestResolver([]Source{origin.source("a", "/a", false)})

	pre := newTestPreloader(res, []PreloadTier{
		{Name: "first", Glyphs: []string{"😀", "😁", "😀"}, ItemDelay: time.Millisecond},
	}, time.Millisecond)

	pre.Start(context.Background()).Wait()

	// The duplicate glyph is skipped, not fetched twice
	count := 0
	for _, path := range origin.requested() {
		if path == "/a/1f600.svg" {
			count++
		}
	}
	require.Equal(t, 1, count)

	progress := pre.Progress()
	require.Equal(t, 2, progress.Loaded)
	require.Equal(t, 1, progress.Skipped)
}

func TestPreloaderStartIsIdempotent(t *testing.T) {
	origin := newFakeOrigin()
	defer origin.server.Close()

	serveKeys(origin, "1f600")

	res, _ := newTestResolver([]Source{origin.source("a", "/a", false)})

	pre := newTestPreloader(res, []PreloadTier{
		{Name: "first", Glyphs: []string{"😀"}, ItemDelay: time.Millisecond},
	}, time.Millisecond)

	ctx := context.Background()
	pre.Start(ctx).Wait()
	pre.Start(ctx).Wait()

	require.Len(t, origin.requested(), 1)
}

func TestPreloaderRecordsSourceURL(t *testing.T) {
	origin := newFakeOrigin()
	defer origin.server.Close()

	serveKeys(origin, "1f600")

	res, _ := newTestResolver([]Source{origin.source("a", "/a", false)})

	pre := newTestPreloader(res, []PreloadTier{
		{Name: "first", Glyphs: []string{"😀"}, ItemDelay: time.Millisecond},
	}, time.Millisecond)

	pre.Start(context.Background()).Wait()

	pre.mutex.Lock()
	url := pre.preloaded["1f600"]
	pre.mutex.Unlock()

	require.Contains(t, url, "/a/1f600.svg")
}

func TestPreloaderFailuresAreDropped(t *testing.T) {
	origin := newFakeOrigin()
	defer origin.server.Close()

	serveKeys(origin, "1f600")

	res, _ := newTestResolver([]Source{origin.source("a", "/a", false)})

	pre := newTestPreloader(res, []PreloadTier{
		{Name: "first", Glyphs: []string{"😀", "😁"}, ItemDelay: time.Millisecond},
	}, time.Millisecond)

	pre.Start(context.Background()).Wait()

	progress := pre.Progress()
	require.Equal(t, 1, progress.Loaded)
	require.Equal(t, 1, progress.Failed)
}
