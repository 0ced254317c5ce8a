// Package loader turns browser history exports into visit records and
// feeds them to the history store.
package loader

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bytedance/sonic"

	"github.com/runnerr0/historyview/internal/normalize"
	"github.com/runnerr0/historyview/internal/storage"
)

// ErrUnsupportedExport is returned when an export has an unexpected shape.
var ErrUnsupportedExport = errors.New("unsupported export structure")

// edgeListKeys are the keys that may hold the record list when an Edge
// export is an object, in lookup order.
var edgeListKeys = []string{"records", "history", "items"}

// Entry is one usable export record: either a normalised visit or the error
// that prevented normalising it.
type Entry struct {
	Record storage.VisitRecord
	Err    error
}

// ParseEdgeRecords decodes an Edge history export. The payload is either a
// list of records or an object holding one under records, history or items.
// Records without a URL or timestamp, and URLs whose scheme is not kept,
// are dropped; unsupported schemes are logged at warn level.
func ParseEdgeRecords(data []byte, logger *slog.Logger) ([]Entry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var payload any
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode edge export: %w", err)
	}

	var list []any
	switch v := payload.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, key := range edgeListKeys {
			if truthy(v[key]) {
				items, ok := v[key].([]any)
				if !ok {
					return nil, fmt.Errorf("%w: expected list under %s", ErrUnsupportedExport, key)
				}
				list = items
				break
			}
		}
		if list == nil {
			return nil, fmt.Errorf("%w: expected list under records/history", ErrUnsupportedExport)
		}
	default:
		return nil, fmt.Errorf("%w: edge export must be a list or an object containing records/history", ErrUnsupportedExport)
	}

	entries := make([]Entry, 0, len(list))
	for _, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if entry, ok := parseEdgeRecord(rec, logger); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func parseEdgeRecord(rec map[string]any, logger *slog.Logger) (Entry, bool) {
	rawURL, ok := normalize.CoerceString(rec["url"])
	if !ok {
		return Entry{}, false
	}
	if skip, warning := normalize.ShouldSkipURL(rawURL); skip {
		if warning != "" {
			logger.Warn(warning)
		}
		return Entry{}, false
	}

	rawTime := firstTruthy(rec["datetime"], rec["timestamp"], combineDateTime(rec["date"], rec["time"]))
	if rawTime == nil {
		return Entry{}, false
	}

	domain, err := normalize.ExtractDomain(rawURL)
	if err != nil {
		return Entry{Err: err}, true
	}
	ts, err := normalize.NormalizeTimestamp(rawTime)
	if err != nil {
		return Entry{Err: err}, true
	}
	title, _ := normalize.CoerceString(rec["title"])

	return Entry{Record: storage.VisitRecord{Domain: domain, Timestamp: ts, Title: title}}, true
}

func combineDateTime(date, clock any) any {
	d, okDate := normalize.CoerceString(date)
	c, okTime := normalize.CoerceString(clock)
	if !okDate || !okTime {
		return nil
	}
	return d + " " + c
}

func firstTruthy(values ...any) any {
	for _, v := range values {
		if truthy(v) {
			return v
		}
	}
	return nil
}

// truthy treats nil, "", 0, false and empty collections as absent.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case float64:
		return x != 0
	case bool:
		return x
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}
