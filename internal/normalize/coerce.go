package normalize

import (
	"sort"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"
)

// CoerceString turns a loosely-typed value into a trimmed string. nil,
// values cast cannot stringify, and blank strings all yield ok=false.
func CoerceString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// CleanText trims s and puts it in Unicode NFC form.
func CleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// MergeLists returns the sorted union of a and b without duplicates.
func MergeLists(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, item := range list {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}
