package normalize

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Blocklist is a set of lowercase domains that loaders must not record.
type Blocklist map[string]struct{}

// NewBlocklist builds a Blocklist from domains, lowercasing each entry.
func NewBlocklist(domains []string) Blocklist {
	b := make(Blocklist, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			b[d] = struct{}{}
		}
	}
	return b
}

// LoadBlocklist reads one domain per line. Text after '#' is ignored and a
// leading "- " is accepted so the file can double as a YAML list. A missing
// file yields an empty blocklist.
func LoadBlocklist(path string) (Blocklist, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Blocklist{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open blocklist: %w", err)
	}
	defer f.Close()

	b := Blocklist{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "-"))
		if line != "" {
			b[strings.ToLower(line)] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read blocklist: %w", err)
	}
	return b, nil
}

// Blocks reports whether domain or any of its parent domains is listed.
// The bare top-level label is never matched on its own.
func (b Blocklist) Blocks(domain string) bool {
	if len(b) == 0 {
		return false
	}
	parts := strings.Split(strings.ToLower(domain), ".")
	for i := 0; i < len(parts)-1; i++ {
		if _, ok := b[strings.Join(parts[i:], ".")]; ok {
			return true
		}
	}
	return false
}
