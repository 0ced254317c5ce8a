package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/historyview/internal/storage"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(DefaultTimezone)
	require.NoError(t, err)
	return loc
}

func visit(domain string, ts string) storage.VisitRow {
	t, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		panic(err)
	}
	return storage.VisitRow{Domain: domain, Timestamp: t}
}

func TestSlotOf_SundayIsZero(t *testing.T) {
	// 2024-06-02 is a Sunday.
	assert.Equal(t, Key{Day: 0, Hour: 12}, SlotOf(time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, Key{Day: 1, Hour: 0}, SlotOf(time.Date(2024, 6, 3, 0, 30, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, Key{Day: 6, Hour: 23}, SlotOf(time.Date(2024, 6, 8, 23, 59, 0, 0, time.UTC), time.UTC))
}

func TestSlotOf_ConvertsToLocalZone(t *testing.T) {
	// 01:00 UTC on Sunday is 21:00 EDT on Saturday.
	key := SlotOf(time.Date(2024, 6, 2, 1, 0, 0, 0, time.UTC), newYork(t))
	assert.Equal(t, Key{Day: 6, Hour: 21}, key)
}

func TestAggregate_BucketsAndCounts(t *testing.T) {
	rows := []storage.VisitRow{
		visit("example.com", "2024-06-02 01:00:00"),
		visit("example.com", "2024-06-02 01:45:00"),
		visit("other.test", "2024-06-02 01:30:00"),
		visit("example.com", "2024-06-03 14:00:00"),
	}

	slots := Aggregate(rows, newYork(t))
	require.Len(t, slots, 2)

	sat := slots[Key{Day: 6, Hour: 21}]
	require.NotNil(t, sat)
	assert.Equal(t, 3, sat.Total)
	assert.Equal(t, map[string]int{"example.com": 2, "other.test": 1}, sat.PerDomain)

	mon := slots[Key{Day: 1, Hour: 10}]
	require.NotNil(t, mon)
	assert.Equal(t, 1, mon.Total)
}

func TestAggregate_TotalMatchesPerDomain(t *testing.T) {
	var rows []storage.VisitRow
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	domains := []string{"a.test", "b.test", "c.test"}
	for i := 0; i < 500; i++ {
		rows = append(rows, storage.VisitRow{
			Domain:    domains[i%len(domains)],
			Timestamp: base.Add(time.Duration(i*37) * time.Minute),
		})
	}

	slots := Aggregate(rows, newYork(t))
	total := 0
	for _, slot := range slots {
		sum := 0
		for _, n := range slot.PerDomain {
			sum += n
		}
		assert.Equal(t, slot.Total, sum)
		assert.Greater(t, slot.Total, 0)
		total += slot.Total
	}
	assert.Equal(t, len(rows), total)
}

func TestAggregate_Empty(t *testing.T) {
	slots := Aggregate(nil, nil)
	assert.Empty(t, slots)
	assert.Empty(t, slots.Keys())
	assert.Equal(t, 0, slots.MaxTotal())
}

func TestSlots_KeysSortedAndDomains(t *testing.T) {
	rows := []storage.VisitRow{
		visit("z.test", "2024-06-08 05:00:00"),
		visit("a.test", "2024-06-02 23:00:00"),
		visit("m.test", "2024-06-02 03:00:00"),
		visit("a.test", "2024-06-08 05:10:00"),
	}
	slots := Aggregate(rows, time.UTC)

	assert.Equal(t, []Key{{0, 3}, {0, 23}, {6, 5}}, slots.Keys())
	assert.Equal(t, []string{"a.test", "m.test", "z.test"}, slots.Domains())
	assert.Equal(t, 2, slots.MaxTotal())
}
