// Package normalize holds the input-sanitisation helpers shared by every
// ingestion boundary: timestamp and domain canonicalisation, URL skip rules,
// blocklist matching, and loose value coercion.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// TimestampLayout is the canonical UTC form stored in the visits table.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	microsThreshold = 1e14
	millisThreshold = 1e12
)

// ParseError reports a value that could not be interpreted as a date/time.
type ParseError struct {
	Raw    any
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %#v", e.Reason, e.Raw)
}

// NormalizeTimestamp converts raw into the canonical "YYYY-MM-DD HH:MM:SS"
// UTC string. Accepted inputs are time.Time, integer or float epochs
// (seconds, milliseconds or microseconds, picked by magnitude), and strings.
// Digit-only strings follow the epoch rule; other strings are parsed as
// free-form dates, with zone-less values taken as UTC.
func NormalizeTimestamp(raw any) (string, error) {
	t, err := ParseTime(raw)
	if err != nil {
		return "", err
	}
	t = t.UTC()
	if t.Year() < 1 || t.Year() > 9999 {
		return "", &ParseError{Raw: raw, Reason: "timestamp out of range"}
	}
	return t.Format(TimestampLayout), nil
}

// ParseTime is NormalizeTimestamp without the final formatting step.
func ParseTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, &ParseError{Raw: raw, Reason: "unsupported timestamp value"}
		}
		return *v, nil
	case int:
		return fromEpochInt(int64(v)), nil
	case int32:
		return fromEpochInt(int64(v)), nil
	case int64:
		return fromEpochInt(v), nil
	case uint32:
		return fromEpochInt(int64(v)), nil
	case uint:
		return fromEpochUint(uint64(v), raw)
	case uint64:
		return fromEpochUint(v, raw)
	case float32:
		return fromEpochFloat(float64(v)), nil
	case float64:
		return fromEpochFloat(v), nil
	case string:
		return parseTimeString(v)
	}
	return time.Time{}, &ParseError{Raw: raw, Reason: "unsupported timestamp value"}
}

func parseTimeString(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s != "" && isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, &ParseError{Raw: raw, Reason: "unable to parse timestamp"}
		}
		return fromEpochInt(n), nil
	}
	for _, layout := range freeFormLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, &ParseError{Raw: raw, Reason: "unable to parse timestamp"}
	}
	if m, ok := namedMonth(s); ok && m != t.Month() {
		return time.Time{}, &ParseError{Raw: raw, Reason: "unable to parse timestamp"}
	}
	return t, nil
}

// freeFormLayouts are the spelled-out forms tried before dateparse, which
// misreads several of them.
var freeFormLayouts = []string{
	"January 2 2006 3pm",
	"January 2 2006 3:04pm",
	"January 2, 2006 3pm",
	"January 2, 2006 3:04pm",
	"Jan 2 2006 3pm",
	"Jan 2 2006 3:04pm",
	"2 January 2006 15:04",
	"2 January 2006 15:04:05",
	"2 Jan 2006 15:04",
	"2 Jan 2006 15:04:05",
	"2 January 2006",
	"2 Jan 2006",
}

// namedMonth returns the month spelled out in s, if any word of s is a full
// month name or its three-letter abbreviation.
func namedMonth(s string) (time.Month, bool) {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r < 'a' || r > 'z'
	})
	for _, w := range words {
		for m := time.January; m <= time.December; m++ {
			name := strings.ToLower(m.String())
			if w == name || w == name[:3] || (m == time.September && w == "sept") {
				return m, true
			}
		}
	}
	return 0, false
}

func fromEpochUint(v uint64, raw any) (time.Time, error) {
	if v > math.MaxInt64 {
		return time.Time{}, &ParseError{Raw: raw, Reason: "timestamp out of range"}
	}
	return fromEpochInt(int64(v)), nil
}

func fromEpochInt(n int64) time.Time {
	switch {
	case n > microsThreshold:
		return time.UnixMicro(n).UTC()
	case n > millisThreshold:
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func fromEpochFloat(f float64) time.Time {
	seconds := NormalizeEpoch(f)
	whole := int64(seconds)
	nanos := int64((seconds - float64(whole)) * 1e9)
	return time.Unix(whole, nanos).UTC()
}

// NormalizeEpoch scales an epoch value to seconds: values above 1e14 are
// microseconds, above 1e12 milliseconds, anything else already seconds.
func NormalizeEpoch(v float64) float64 {
	switch {
	case v > microsThreshold:
		return v / 1_000_000
	case v > millisThreshold:
		return v / 1000
	}
	return v
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
