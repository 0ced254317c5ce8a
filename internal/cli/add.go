package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/historyview/internal/loader"
	"github.com/runnerr0/historyview/internal/normalize"
	"github.com/runnerr0/historyview/internal/storage"
)

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for add command")
	}

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	dbPath, err := resolveDBPath(c.globals, cfg)
	if err != nil {
		return err
	}
	block, err := cfg.Blocklist()
	if err != nil {
		return err
	}

	store, db, err := openStore(dbPath, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(context.Background(), store, block)
}

// executeWithStore runs the add logic against a provided recorder (used by tests).
func (c *AddCommand) executeWithStore(ctx context.Context, rec loader.Recorder, block normalize.Blocklist) error {
	if skip, warning := normalize.ShouldSkipURL(c.URL); skip {
		if warning != "" {
			return fmt.Errorf("%s", warning)
		}
		return fmt.Errorf("URL scheme is not recorded: %s", c.URL)
	}

	domain, err := normalize.ExtractDomain(c.URL)
	if err != nil {
		return err
	}
	if block.Blocks(domain) {
		return fmt.Errorf("domain %q is blocklisted", domain)
	}

	var at any = time.Now()
	if strings.TrimSpace(c.At) != "" {
		at = strings.TrimSpace(c.At)
	}
	ts, err := normalize.NormalizeTimestamp(at)
	if err != nil {
		return fmt.Errorf("invalid --at value: %w", err)
	}

	visit := storage.VisitRecord{Domain: domain, Timestamp: ts, Title: normalize.CleanText(c.Title)}
	inserted, err := rec.RecordVisit(ctx, visit)
	if err != nil {
		return fmt.Errorf("storing visit: %w", err)
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{
			"domain":    visit.Domain,
			"timestamp": visit.Timestamp,
			"title":     visit.Title,
			"inserted":  inserted,
		})
	}

	if inserted {
		fmt.Printf("Added visit to %s at %s\n", visit.Domain, visit.Timestamp)
	} else {
		fmt.Printf("Visit to %s at %s already recorded\n", visit.Domain, visit.Timestamp)
	}
	return nil
}
