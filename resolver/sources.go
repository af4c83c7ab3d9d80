package resolver

import (
	"fmt"
	"strings"

	. "vemoji/common"
	"vemoji/common/emoji"
)

// Source is one remote image host. URL holds a single %s slot for the
// codepoint key. Sources are static configuration, walked strictly in
// declared order with no reprioritization on failure.
type Source struct {
	Name         string
	URL          string
	StripVariant bool
}

var DefaultSources = []Source{
	{Name: "jsdelivr", URL: "https://cdn.jsdelivr.net/gh/jdecked/twemoji@15.1.0/assets/svg/%s.svg", StripVariant: true},
	{Name: "unpkg", URL: "https://unpkg.com/@jdecked/twemoji@15.1.0/assets/svg/%s.svg", StripVariant: true},
	{Name: "cdnjs", URL: "https://cdnjs.cloudflare.com/ajax/libs/twemoji/14.0.2/svg/%s.svg", StripVariant: true},
}

var srcLog = NewLogger("SOURCES")

// LoadSources returns the configured registry, falling back to the
// defaults. Config entries are "name|urlTemplate" or "name|urlTemplate|strip".
func LoadSources() []Source {
	if len(EmojiSources) == 0 {
		return DefaultSources
	}

	sources := []Source{}
	for _, entry := range EmojiSources {
		parts := strings.Split(entry, "|")
		if len(parts) < 2 || !strings.Contains(parts[1], "%s") {
			srcLog.Printf("Ignoring malformed source entry: %s", entry)
			continue
		}

		sources = append(sources, Source{
			Name:         parts[0],
			URL:          parts[1],
			StripVariant: len(parts) > 2 && parts[2] == "strip",
		})
	}

	if len(sources) == 0 {
		return DefaultSources
	}
	return sources
}

// Attempt is one concrete URL to try for a key.
type Attempt struct {
	Source   Source
	Spelling string
	URL      string
}

// Candidates expands a key against the registry: sources in declared
// order, the unstripped spelling always before the stripped one.
func Candidates(sources []Source, key string) []Attempt {
	attempts := []Attempt{}
	stripped := emoji.StripVariant(key)

	for _, source := range sources {
		attempts = append(attempts, Attempt{
			Source:   source,
			Spelling: key,
			URL:      fmt.Sprintf(source.URL, key),
		})

		if source.StripVariant && stripped != key && stripped != "" {
			attempts = append(attempts, Attempt{
				Source:   source,
				Spelling: stripped,
				URL:      fmt.Sprintf(source.URL, stripped),
			})
		}
	}

	return attempts
}
