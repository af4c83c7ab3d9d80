package resolver

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	. "vemoji/common"
	"vemoji/common/emoji"
	"vemoji/common/snowflake"
)

var preLog = NewLogger("PRELOAD")

type PreloadTier struct {
	Name      string
	Glyphs    []string
	ItemDelay time.Duration
}

// Preloader drip-feeds tiered glyph lists through the resolver to warm
// the cache ahead of use. Tier N starts one tier delay after tier N-1's
// start; glyphs within a tier are staggered by the item delay. The
// inflight/preloaded sets live for the process only, not in the
// persistent cache.
type Preloader struct {
	resolver  *Resolver
	tiers     []PreloadTier
	tierDelay time.Duration
	bandwidth *rate.Limiter

	wait       sync.WaitGroup
	started    bool
	startMutex sync.Mutex

	mutex     sync.Mutex
	inflight  map[string]bool
	preloaded map[string]string // canonical key -> source URL
	failed    int
	skipped   int
}

func NewPreloader(r *Resolver) *Preloader {
	tiers := []PreloadTier{}
	for _, tier := range emoji.Tiers() {
		tiers = append(tiers, PreloadTier{
			Name:      tier.Name,
			Glyphs:    tier.Glyphs,
			ItemDelay: PreloadItemDelay,
		})
	}

	return &Preloader{
		resolver:  r,
		tiers:     tiers,
		tierDelay: PreloadTierDelay,
		bandwidth: NewBandwidthLimiter(PreloadBandwidth),
		inflight:  make(map[string]bool),
		preloaded: make(map[string]string),
	}
}

// Start kicks off one preload run in the background. Idempotent; a no-op
// when preloading is disabled.
func (p *Preloader) Start(ctx context.Context) *sync.WaitGroup {
	p.startMutex.Lock()
	defer p.startMutex.Unlock()

	if p.started || !PreloadEnabled {
		return &p.wait
	}
	p.started = true

	run := snowflake.New()
	preLog.Printf("Starting run %d (%d tiers)", run, len(p.tiers))

	for i, tier := range p.tiers {
		p.wait.Add(1)
		go p.runTier(ctx, run, tier, time.Duration(i)*p.tierDelay)
	}

	go func() {
		p.wait.Wait()

		progress := p.Progress()
		preLog.Printf("Run %d finished: %d loaded, %d failed, %d skipped",
			run, progress.Loaded, progress.Failed, progress.Skipped)

		OnPreloadFinished(&PreloadFinishedEvent{
			Run:     run,
			Loaded:  progress.Loaded,
			Failed:  progress.Failed,
			Skipped: progress.Skipped,
		})
	}()

	return &p.wait
}

func (p *Preloader) runTier(ctx context.Context, run snowflake.Snowflake, tier PreloadTier, offset time.Duration) {
	defer p.wait.Done()

	select {
	case <-ctx.Done():
		return
	case <-time.After(offset):
	}

	OnPreloadTierStarted(&PreloadTierStartedEvent{
		Run:   run,
		Tier:  tier.Name,
		Count: len(tier.Glyphs),
	})

	limiter := rate.NewLimiter(rate.Every(tier.ItemDelay), 1)

	for _, glyph := range tier.Glyphs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		p.preload(ctx, glyph)
	}
}

func (p *Preloader) preload(ctx context.Context, input string) {
	glyph := emoji.Normalize(input)
	if glyph == "" {
		return
	}
	key := emoji.EmojiToCodepoint(glyph)

	p.mutex.Lock()
	if p.inflight[key] || p.preloaded[key] != "" {
		p.skipped++
		p.mutex.Unlock()
		return
	}
	p.inflight[key] = true
	p.mutex.Unlock()

	res, err := p.resolver.resolve(ctx, glyph, p.bandwidth)

	p.mutex.Lock()
	defer p.mutex.Unlock()

	delete(p.inflight, key)
	if err != nil {
		// Logged and dropped, never retried within a run
		p.failed++
		preLog.Printf("Failed to preload %s: %v", key, err)
		return
	}

	url := res.URL
	if url == "" {
		url = res.Source
	}
	p.preloaded[key] = url
}

type PreloadProgress struct {
	Enabled bool `json:"enabled"`
	Started bool `json:"started"`
	Total   int  `json:"total"`
	Loaded  int  `json:"loaded"`
	Failed  int  `json:"failed"`
	Skipped int  `json:"skipped"`
}

func (p *Preloader) Progress() PreloadProgress {
	p.startMutex.Lock()
	started := p.started
	p.startMutex.Unlock()

	total := 0
	for _, tier := range p.tiers {
		total += len(tier.Glyphs)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	return PreloadProgress{
		Enabled: PreloadEnabled,
		Started: started,
		Total:   total,
		Loaded:  len(p.preloaded),
		Failed:  p.failed,
		Skipped: p.skipped,
	}
}
