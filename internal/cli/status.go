package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/historyview/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version            string            `json:"version"`
	DatabasePath       string            `json:"database_path"`
	DatabaseSizeBytes  int64             `json:"database_size_bytes"`
	TotalVisits        int64             `json:"total_visits"`
	TotalDomains       int64             `json:"total_domains"`
	CategorizedDomains int64             `json:"categorized_domains"`
	FaviconDomains     int64             `json:"favicon_domains"`
	OldestVisit        string            `json:"oldest_visit,omitempty"`
	NewestVisit        string            `json:"newest_visit,omitempty"`
	Timezone           string            `json:"timezone"`
	TopDomains         []domainCountJSON `json:"top_domains"`
}

type domainCountJSON struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	dbPath, err := resolveDBPath(c.globals, cfg)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	snap, err := storage.OpenSnapshot(dbPath)
	if err != nil {
		return err
	}
	defer snap.Close()

	return c.executeWithReader(snap, dbPath, loc.String())
}

// executeWithReader runs status against a provided reader (for testing).
func (c *StatusCommand) executeWithReader(reader storage.Reader, dbPath, timezone string) error {
	stats, err := reader.GetStats(context.Background())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if wantJSON(c.globals) {
		return c.printStatusJSON(stats, dbPath, timezone)
	}
	return c.printStatusHuman(stats, dbPath, timezone)
}

func (c *StatusCommand) printStatusHuman(stats *storage.Stats, dbPath, timezone string) error {
	fmt.Println("historyview status")
	fmt.Println("==================")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, humanize.Bytes(uint64(stats.DatabaseSizeBytes)))
	fmt.Printf("Visits:        %s\n", humanize.Comma(stats.TotalVisits))
	fmt.Printf("Domains:       %s\n", humanize.Comma(stats.TotalDomains))

	if stats.TotalDomains > 0 {
		pct := float64(stats.CategorizedDomains) / float64(stats.TotalDomains) * 100
		fmt.Printf("Categorised:   %s (%.1f%%), %s uncategorised\n",
			humanize.Comma(stats.CategorizedDomains), pct,
			humanize.Comma(stats.TotalDomains-stats.CategorizedDomains))
		fmt.Printf("Icons:         %s\n", humanize.Comma(stats.FaviconDomains))
	}

	// Time range
	if stats.TotalVisits > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestVisit.Format("2006-01-02"))
		fmt.Printf("Newest:        %s (%s)\n", stats.NewestVisit.Format("2006-01-02"), humanize.Time(stats.NewestVisit))
	}
	fmt.Printf("Timezone:      %s\n", timezone)

	// Top domains
	if len(stats.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		for _, d := range stats.TopDomains {
			fmt.Printf("  %-30s %s\n", d.Domain, humanize.Comma(d.Count))
		}
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(stats *storage.Stats, dbPath, timezone string) error {
	out := statusJSON{
		Version:            c.version,
		DatabasePath:       dbPath,
		DatabaseSizeBytes:  stats.DatabaseSizeBytes,
		TotalVisits:        stats.TotalVisits,
		TotalDomains:       stats.TotalDomains,
		CategorizedDomains: stats.CategorizedDomains,
		FaviconDomains:     stats.FaviconDomains,
		Timezone:           timezone,
		TopDomains:         make([]domainCountJSON, len(stats.TopDomains)),
	}

	if stats.TotalVisits > 0 {
		out.OldestVisit = stats.OldestVisit.UTC().Format(time.RFC3339)
		out.NewestVisit = stats.NewestVisit.UTC().Format(time.RFC3339)
	}

	for i, d := range stats.TopDomains {
		out.TopDomains[i] = domainCountJSON{Domain: d.Domain, Count: d.Count}
	}

	return printJSON(out)
}
