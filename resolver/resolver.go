package resolver

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	. "vemoji/common"
	"vemoji/common/emoji"
	"vemoji/storage"
)

var resLog = NewLogger("RESOLVER")

// ErrMiss means no source produced usable content. It is the expected
// failure mode: callers fall back to rendering the plain glyph.
var ErrMiss = NewError(ErrorCodeNotResolved, errors.New("emoji could not be resolved"))

const SourceCache = "cache"

// Resolution is a successfully resolved emoji: the canonical key, the raw
// vector markup, and where it came from. ID is the compact reference for
// known emojis, 0 otherwise.
type Resolution struct {
	Key     string
	ID      int64
	Content string
	Source  string
	URL     string
}

type Resolver struct {
	sources []Source
	cache   *storage.Cache
}

func NewResolver(cache *storage.Cache) *Resolver {
	return &Resolver{
		sources: LoadSources(),
		cache:   cache,
	}
}

// Resolve maps a glyph (or :shortcode:) to vector image content: cache
// first, then each source candidate in order, caching the first success
// under the canonical key. Concurrent calls for the same glyph are
// independent; duplicate fetches are benign since the last write wins with
// equivalent content.
func (r *Resolver) Resolve(ctx context.Context, input string) (*Resolution, error) {
	return r.resolve(ctx, input, nil)
}

func (r *Resolver) resolve(ctx context.Context, input string, limiter *rate.Limiter) (*Resolution, error) {
	glyph := emoji.Normalize(input)
	if glyph == "" {
		// Malformed input never reaches the network
		return nil, ErrMiss
	}

	key := emoji.EmojiToCodepoint(glyph)
	id := emoji.CodepointToID[key]

	if rec, ok := r.cache.Get(ctx, key); ok {
		return &Resolution{
			Key:     key,
			ID:      id,
			Content: rec.Content,
			Source:  SourceCache,
		}, nil
	}

	for _, attempt := range Candidates(r.sources, key) {
		content, err := FetchSource(ctx, attempt.URL, limiter)
		if err != nil {
			resLog.Printf("Source %s failed for %s: %v", attempt.Source.Name, attempt.Spelling, err)
			continue
		}

		// Stored under the canonical key even when the stripped
		// spelling fetched it
		r.cache.Put(ctx, key, content, attempt.Source.Name)

		OnEmojiResolved(&EmojiResolvedEvent{
			Key:    key,
			ID:     id,
			Source: attempt.Source.Name,
			URL:    attempt.URL,
		})

		return &Resolution{
			Key:     key,
			ID:      id,
			Content: content,
			Source:  attempt.Source.Name,
			URL:     attempt.URL,
		}, nil
	}

	return nil, ErrMiss
}
