// Package aggregate buckets visits into local day-of-week/hour slots.
package aggregate

import (
	"sort"
	"time"

	"github.com/runnerr0/historyview/internal/storage"
)

// DefaultTimezone is the zone visits are bucketed in when none is configured.
const DefaultTimezone = "America/New_York"

// Key identifies a slot. Day 0 is Sunday.
type Key struct {
	Day  int
	Hour int
}

// SlotAggregate holds the visits that fell into one populated slot.
// Total always equals the sum of PerDomain.
type SlotAggregate struct {
	Day       int
	Hour      int
	Total     int
	PerDomain map[string]int
}

// Slots maps populated slots to their aggregates.
type Slots map[Key]*SlotAggregate

// SlotOf returns the local slot of t in loc.
func SlotOf(t time.Time, loc *time.Location) Key {
	local := t.In(loc)
	return Key{Day: int(local.Weekday()), Hour: local.Hour()}
}

// Aggregate performs a single pass over rows. Buckets are created on the
// first visit that lands in them, so empty slots never appear. A nil loc
// means UTC.
func Aggregate(rows []storage.VisitRow, loc *time.Location) Slots {
	if loc == nil {
		loc = time.UTC
	}

	slots := Slots{}
	for _, row := range rows {
		key := SlotOf(row.Timestamp, loc)
		slot, ok := slots[key]
		if !ok {
			slot = &SlotAggregate{Day: key.Day, Hour: key.Hour, PerDomain: map[string]int{}}
			slots[key] = slot
		}
		slot.Total++
		slot.PerDomain[row.Domain]++
	}
	return slots
}

// Keys returns the populated slots ordered by (day, hour).
func (s Slots) Keys() []Key {
	keys := make([]Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Day != keys[j].Day {
			return keys[i].Day < keys[j].Day
		}
		return keys[i].Hour < keys[j].Hour
	})
	return keys
}

// Domains returns every domain seen in any slot, sorted.
func (s Slots) Domains() []string {
	seen := map[string]struct{}{}
	for _, slot := range s {
		for d := range slot.PerDomain {
			seen[d] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// MaxTotal returns the largest slot total, or 0 when there are no slots.
func (s Slots) MaxTotal() int {
	highest := 0
	for _, slot := range s {
		if slot.Total > highest {
			highest = slot.Total
		}
	}
	return highest
}
