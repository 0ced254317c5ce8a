package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/runnerr0/historyview/internal/storage"
	"github.com/runnerr0/historyview/internal/taxonomy"
)

// categoryApplier writes one domain's categories.
type categoryApplier interface {
	ApplyCategories(ctx context.Context, u storage.CategoryUpdate) (storage.CategoryResult, error)
}

// ApplyStats counts what apply-map did.
type ApplyStats struct {
	Seen             int
	Missing          int
	Updated          int
	SecondaryDeleted int64
	SecondaryAdded   int64
}

// dryApplier answers ApplyCategories from a read-only snapshot.
type dryApplier struct {
	domains   map[string]bool
	secondary map[string][]string
}

func newDryApplier(ctx context.Context, reader storage.Reader) (*dryApplier, error) {
	records, err := reader.ListDomains(ctx)
	if err != nil {
		return nil, err
	}
	secondary, err := reader.ListSecondaryCategories(ctx)
	if err != nil {
		return nil, err
	}
	d := &dryApplier{domains: make(map[string]bool, len(records)), secondary: secondary}
	for _, r := range records {
		d.domains[r.Domain] = true
	}
	return d, nil
}

func (d *dryApplier) ApplyCategories(_ context.Context, u storage.CategoryUpdate) (storage.CategoryResult, error) {
	if !d.domains[u.Domain] {
		return storage.CategoryResult{}, nil
	}
	return storage.CategoryResult{
		Found:            true,
		SecondaryDeleted: int64(len(d.secondary[u.Domain])),
		SecondaryAdded:   int64(len(u.Secondary)),
	}, nil
}

// Execute implements the go-flags Commander interface for ApplyMapCommand.
func (c *ApplyMapCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	dbPath, err := resolveDBPath(c.globals, cfg)
	if err != nil {
		return err
	}
	path, err := pathOr(c.DomainMap, cfg.Taxonomy.DomainMapFile)
	if err != nil {
		return err
	}
	overrides, err := taxonomy.LoadOverrides(path)
	if err != nil {
		return err
	}
	if len(overrides) == 0 {
		fmt.Printf("No mappings found in %s\n", path)
		return nil
	}

	ctx := context.Background()
	if c.DryRun {
		snap, err := storage.OpenSnapshot(dbPath)
		if err != nil {
			return err
		}
		defer snap.Close()
		applier, err := newDryApplier(ctx, snap)
		if err != nil {
			return err
		}
		return c.executeWithApplier(ctx, applier, overrides)
	}

	store, db, err := openStore(dbPath, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithApplier(ctx, store, overrides)
}

// executeWithApplier applies overrides in domain order (used by tests).
func (c *ApplyMapCommand) executeWithApplier(ctx context.Context, applier categoryApplier, overrides taxonomy.Overrides) error {
	stats, err := applyOverrides(ctx, applier, overrides)
	if err != nil {
		return err
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{
			"dry_run":            c.DryRun,
			"domains_seen":       stats.Seen,
			"domains_missing":    stats.Missing,
			"domains_updated":    stats.Updated,
			"secondary_deleted":  stats.SecondaryDeleted,
			"secondary_inserted": stats.SecondaryAdded,
		})
	}
	fmt.Printf("Processed %d domains (%d missing). Updated %d domains. Secondary categories: %d deleted, %d inserted.\n",
		stats.Seen, stats.Missing, stats.Updated, stats.SecondaryDeleted, stats.SecondaryAdded)
	return nil
}

// applyOverrides writes every override through applier. Domains absent from
// the database are counted as missing. An omitted primary leaves the stored
// one alone.
func applyOverrides(ctx context.Context, applier categoryApplier, overrides taxonomy.Overrides) (ApplyStats, error) {
	domains := make([]string, 0, len(overrides))
	for d := range overrides {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	var stats ApplyStats
	for _, d := range domains {
		o := overrides[d]
		stats.Seen++
		res, err := applier.ApplyCategories(ctx, storage.CategoryUpdate{
			Domain:     d,
			Primary:    o.Primary,
			SetPrimary: o.PrimarySet,
			Secondary:  o.Secondary,
		})
		if err != nil {
			return stats, fmt.Errorf("applying %s: %w", d, err)
		}
		if !res.Found {
			stats.Missing++
			continue
		}
		stats.Updated++
		stats.SecondaryDeleted += res.SecondaryDeleted
		stats.SecondaryAdded += res.SecondaryAdded
	}
	return stats, nil
}
