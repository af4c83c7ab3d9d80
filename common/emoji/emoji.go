package emoji

import (
	"fmt"
	"strings"

	kemoji "github.com/kyokomi/emoji/v2"

	"vemoji/common"
)

// EmojiToCodepoint derives the canonical cache key for a glyph: the
// lowercase hex of every scalar in the sequence, hyphen-joined. Variation
// selectors and ZWJs are kept, so the key round-trips the exact sequence;
// hosts that omit the selector in filenames are handled by StripVariant.
func EmojiToCodepoint(emoji string) string {
	var parts []string
	for _, r := range emoji {
		parts = append(parts, fmt.Sprintf("%x", r))
	}

	return strings.Join(parts, "-")
}

// StripVariant removes Variation Selector-16 components from a key,
// producing the alternate filename spelling some hosts use.
func StripVariant(key string) string {
	parts := strings.Split(key, "-")
	kept := parts[:0]
	for _, p := range parts {
		if p == "fe0f" {
			continue
		}
		kept = append(kept, p)
	}

	return strings.Join(kept, "-")
}

// Normalize accepts either a raw glyph or a :shortcode: and returns the
// glyph, or "" when the input cannot name an emoji.
func Normalize(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	if strings.HasPrefix(input, ":") && strings.HasSuffix(input, ":") && len(input) > 2 {
		glyph, ok := kemoji.CodeMap()[input]
		if !ok {
			return ""
		}
		return strings.TrimSpace(glyph)
	}

	for _, r := range input {
		if r >= 0x2000 {
			return input
		}
	}

	// Plain ASCII/latin text is never an emoji sequence
	return ""
}

var CodepointToID = map[string]int64{}
var IDToCodepoint = map[int64]string{}

func IsKnownEmojiID(id int64) bool {
	_, exists := IDToCodepoint[id]
	return exists
}

func init() {
	for _, tier := range Tiers() {
		for _, glyph := range tier.Glyphs {
			codepoint := EmojiToCodepoint(glyph)
			id := int64(common.HashCRC32(codepoint)) // uint32 is too small to collide with real Snowflakes

			if _codepoint, exists := IDToCodepoint[id]; exists && _codepoint != codepoint {
				panic(fmt.Sprintf("ID collision: %d for codepoints %s and %s", id, codepoint, _codepoint))
			}

			CodepointToID[codepoint] = id
			IDToCodepoint[id] = codepoint
		}
	}
}
