package dataset

import (
	"sort"

	"github.com/runnerr0/historyview/internal/normalize"
	"github.com/runnerr0/historyview/internal/storage"
	"github.com/runnerr0/historyview/internal/taxonomy"
)

// DomainMetadata is everything the builder needs to know about a domain.
// Empty strings mean absent; SecondaryTags is sorted.
type DomainMetadata struct {
	Domain        string
	Title         string
	PrimaryTag    string
	SecondaryTags []string
	FaviconType   string
	FaviconData   []byte
}

// HasIcon reports whether icon bytes are stored for the domain.
func (m DomainMetadata) HasIcon() bool {
	return len(m.FaviconData) > 0
}

// Metadata maps domains to their resolved metadata.
type Metadata map[string]DomainMetadata

// Resolve computes metadata once for each of domains.
//
// An override with a primary key replaces the stored primary outright, even
// when it clears it; an override without one defers to the stored value.
// Secondary tags are the union of stored and override tags. Overrides apply
// to domains that have no stored record as well.
func Resolve(
	domains []string,
	records []storage.DomainRecord,
	secondary map[string][]string,
	overrides taxonomy.Overrides,
) Metadata {
	byDomain := make(map[string]storage.DomainRecord, len(records))
	for _, rec := range records {
		byDomain[normalize.Host(rec.Domain)] = rec
	}

	meta := make(Metadata, len(domains))
	for _, domain := range domains {
		if _, done := meta[domain]; done {
			continue
		}
		rec := byDomain[domain]
		m := DomainMetadata{
			Domain:      domain,
			Title:       normalize.CleanText(rec.Title),
			PrimaryTag:  taxonomy.NormalizeTag(rec.PrimaryCategory),
			FaviconType: rec.FaviconType,
			FaviconData: rec.FaviconData,
		}

		tags := map[string]struct{}{}
		for _, raw := range secondary[domain] {
			if tag := taxonomy.NormalizeTag(raw); tag != "" {
				tags[tag] = struct{}{}
			}
		}

		if o, ok := overrides[domain]; ok {
			if o.PrimarySet {
				m.PrimaryTag = o.Primary
			}
			for _, tag := range o.Secondary {
				tags[tag] = struct{}{}
			}
		}

		if len(tags) > 0 {
			m.SecondaryTags = make([]string, 0, len(tags))
			for tag := range tags {
				m.SecondaryTags = append(m.SecondaryTags, tag)
			}
			sort.Strings(m.SecondaryTags)
		}
		meta[domain] = m
	}
	return meta
}
