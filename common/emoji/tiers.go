package emoji

import (
	_ "embed"
	"strings"
	"sync"
)

//go:embed tier_frequent.txt
var tierFrequentRaw string

//go:embed tier_common.txt
var tierCommonRaw string

//go:embed tier_extended.txt
var tierExtendedRaw string

// Tier is a frequency-ordered preload list. Tiers are warmed in declared
// order, most-used glyphs first.
type Tier struct {
	Name   string
	Glyphs []string
}

var tiers []Tier
var tiersOnce sync.Once

func Tiers() []Tier {
	tiersOnce.Do(func() {
		tiers = []Tier{
			{Name: "frequent", Glyphs: splitGlyphs(tierFrequentRaw)},
			{Name: "common", Glyphs: splitGlyphs(tierCommonRaw)},
			{Name: "extended", Glyphs: splitGlyphs(tierExtendedRaw)},
		}
	})
	return tiers
}

func splitGlyphs(raw string) []string {
	var glyphs []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		glyphs = append(glyphs, line)
	}
	return glyphs
}
