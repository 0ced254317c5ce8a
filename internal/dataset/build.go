// Package dataset turns slot aggregates into the level0/level1 JSON
// documents and per-slot sprite sheets consumed by the heatmap viewer.
package dataset

import (
	"fmt"
	"math"
	"sort"

	"github.com/runnerr0/historyview/internal/aggregate"
	"github.com/runnerr0/historyview/internal/sprite"
	"github.com/runnerr0/historyview/internal/taxonomy"
)

// Level0Entry is one cell of the coarse heatmap.
type Level0Entry struct {
	Day   int `json:"day"`
	Hour  int `json:"hour"`
	Value int `json:"value"`
	Size  int `json:"size"`
}

// SiteEntry is a domain row inside a slot breakdown.
type SiteEntry struct {
	Domain          string   `json:"domain"`
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	Value           int      `json:"value"`
	FaviconSymbolID string   `json:"favicon_symbol_id,omitempty"`
	SecondaryTags   []string `json:"secondary_tags,omitempty"`
}

// CategoryGroup collects the sites of one primary tag within a slot.
type CategoryGroup struct {
	Tag   string      `json:"tag"`
	Label string      `json:"label"`
	Value int         `json:"value"`
	Sites []SiteEntry `json:"sites"`
}

// Level1 is the detailed breakdown of one slot.
type Level1 struct {
	Day           int             `json:"day"`
	Hour          int             `json:"hour"`
	Categories    []CategoryGroup `json:"categories"`
	Uncategorized []SiteEntry     `json:"uncategorized"`
	Sprite        string          `json:"sprite,omitempty"`
}

// BuildLevel0 returns one entry per populated slot sorted by (day, hour).
// Size is the slot total relative to the busiest slot, scaled to 0..100 and
// rounded half to even.
func BuildLevel0(slots aggregate.Slots) []Level0Entry {
	entries := make([]Level0Entry, 0, len(slots))
	maxTotal := slots.MaxTotal()
	for _, key := range slots.Keys() {
		slot := slots[key]
		size := 0
		if maxTotal > 0 {
			size = int(math.RoundToEven(float64(slot.Total) / float64(maxTotal) * 100))
		}
		entries = append(entries, Level0Entry{
			Day:   slot.Day,
			Hour:  slot.Hour,
			Value: slot.Total,
			Size:  size,
		})
	}
	return entries
}

type domainCount struct {
	domain string
	count  int
}

// rankDomains orders a slot's domains by count descending, then by name.
func rankDomains(slot *aggregate.SlotAggregate) []domainCount {
	ranked := make([]domainCount, 0, len(slot.PerDomain))
	for d, n := range slot.PerDomain {
		ranked = append(ranked, domainCount{domain: d, count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].domain < ranked[j].domain
	})
	return ranked
}

// BuildLevel1 groups a slot's domains by primary tag. Sites are ranked by
// count descending then domain; groups appear in the order their first
// ranked site is met. Domains without a primary tag go to Uncategorized.
// spritePath is stored verbatim and omitted from the JSON when empty.
func BuildLevel1(slot *aggregate.SlotAggregate, meta Metadata, cats taxonomy.Categories, spritePath string) Level1 {
	out := Level1{
		Day:           slot.Day,
		Hour:          slot.Hour,
		Categories:    []CategoryGroup{},
		Uncategorized: []SiteEntry{},
		Sprite:        spritePath,
	}

	groupIndex := map[string]int{}
	for _, dc := range rankDomains(slot) {
		m := meta[dc.domain]
		entry := SiteEntry{
			Domain: dc.domain,
			Title:  m.Title,
			URL:    fmt.Sprintf("https://%s/", dc.domain),
			Value:  dc.count,
		}
		if entry.Title == "" {
			entry.Title = dc.domain
		}
		if m.HasIcon() {
			entry.FaviconSymbolID = sprite.SymbolID(dc.domain)
		}
		if len(m.SecondaryTags) > 0 {
			entry.SecondaryTags = append([]string(nil), m.SecondaryTags...)
		}

		if m.PrimaryTag == "" {
			out.Uncategorized = append(out.Uncategorized, entry)
			continue
		}

		idx, ok := groupIndex[m.PrimaryTag]
		if !ok {
			idx = len(out.Categories)
			groupIndex[m.PrimaryTag] = idx
			out.Categories = append(out.Categories, CategoryGroup{
				Tag:   m.PrimaryTag,
				Label: cats.Label(m.PrimaryTag),
				Sites: []SiteEntry{},
			})
		}
		group := &out.Categories[idx]
		group.Value += dc.count
		group.Sites = append(group.Sites, entry)
	}

	return out
}

// SpriteSymbols returns the icons of the slot's domains that have stored
// icon data.
func SpriteSymbols(slot *aggregate.SlotAggregate, meta Metadata) []sprite.Symbol {
	var symbols []sprite.Symbol
	for _, dc := range rankDomains(slot) {
		m := meta[dc.domain]
		if !m.HasIcon() {
			continue
		}
		symbols = append(symbols, sprite.Symbol{
			Domain:   dc.domain,
			MIMEType: m.FaviconType,
			Data:     m.FaviconData,
		})
	}
	return symbols
}
