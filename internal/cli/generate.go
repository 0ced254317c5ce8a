package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/runnerr0/historyview/internal/config"
	"github.com/runnerr0/historyview/internal/dataset"
)

// Execute implements the go-flags Commander interface for GenerateCommand.
func (c *GenerateCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	dbPath, err := resolveDBPath(c.globals, cfg)
	if err != nil {
		return err
	}
	logger, err := newLogger(c.globals, cfg)
	if err != nil {
		return err
	}
	opts, err := c.options(cfg, dbPath, logger)
	if err != nil {
		return err
	}
	return c.executeWithOptions(context.Background(), opts)
}

// options merges command flags over cfg.
func (c *GenerateCommand) options(cfg *config.Config, dbPath string, logger *slog.Logger) (dataset.Options, error) {
	var opts dataset.Options
	var err error

	if opts.OutputDir, err = pathOr(c.Output, cfg.Output.Dir); err != nil {
		return opts, err
	}
	if opts.CategoriesPath, err = pathOr(c.Categories, cfg.Taxonomy.CategoriesFile); err != nil {
		return opts, err
	}
	if opts.DomainMapPath, err = pathOr(c.DomainMap, cfg.Taxonomy.DomainMapFile); err != nil {
		return opts, err
	}
	if c.SpriteDir != "" || cfg.Output.SpriteDir != "" {
		if opts.SpriteDir, err = pathOr(c.SpriteDir, cfg.Output.SpriteDir); err != nil {
			return opts, err
		}
	}

	if tz := strings.TrimSpace(c.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return opts, fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		opts.Location = loc
	} else if opts.Location, err = cfg.Location(); err != nil {
		return opts, err
	}

	opts.DBPath = dbPath
	opts.SkipSprites = c.SkipSprites || cfg.Output.SkipSprites
	opts.Logger = logger
	return opts, nil
}

// executeWithOptions runs the pipeline and prints its summary (used by tests).
func (c *GenerateCommand) executeWithOptions(ctx context.Context, opts dataset.Options) error {
	summary, err := dataset.WriteOutputs(ctx, opts)
	if err != nil {
		return err
	}

	if wantJSON(c.globals) {
		return printJSON(summary)
	}
	fmt.Printf("Wrote %d level0 entries, %d level1 files, %d sprite files to %s\n",
		summary.Level0Entries, summary.Level1Files, summary.SpriteFiles, opts.OutputDir)
	return nil
}
