package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/runnerr0/historyview/internal/config"
	"github.com/runnerr0/historyview/internal/loader"
	"github.com/runnerr0/historyview/internal/normalize"
	"github.com/runnerr0/historyview/internal/storage"
)

// Execute implements the go-flags Commander interface for LoadEdgeCommand.
func (c *LoadEdgeCommand) Execute(args []string) error {
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
	block, err := c.blocklist(cfg)
	if err != nil {
		return err
	}

	opts := loader.Options{
		DryRun:           c.DryRun,
		Limit:            c.Limit,
		Blocklist:        block,
		FeedbackInterval: cfg.Ingest.FeedbackInterval,
		Logger:           logger,
	}
	if !c.Quiet && !wantJSON(c.globals) {
		opts.Progress = os.Stdout
	}

	if c.DryRun {
		// Dry runs read the database only to confirm it exists and has the schema.
		snap, err := storage.OpenSnapshot(dbPath)
		if err != nil {
			return err
		}
		snap.Close()
		return c.executeWithRecorder(context.Background(), nil, opts)
	}

	store, db, err := openStore(dbPath, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithRecorder(context.Background(), store, opts)
}

// blocklist merges the configured blocklist with --blocklist when given.
func (c *LoadEdgeCommand) blocklist(cfg *config.Config) (normalize.Blocklist, error) {
	block, err := cfg.Blocklist()
	if err != nil {
		return nil, err
	}
	if c.Blocklist == "" {
		return block, nil
	}
	path, err := config.ExpandPath(c.Blocklist)
	if err != nil {
		return nil, err
	}
	extra, err := normalize.LoadBlocklist(path)
	if err != nil {
		return nil, err
	}
	for d := range extra {
		block[d] = struct{}{}
	}
	return block, nil
}

// executeWithRecorder loads the export into rec (used by tests).
func (c *LoadEdgeCommand) executeWithRecorder(ctx context.Context, rec loader.Recorder, opts loader.Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	stats, err := loader.LoadEdgeFile(ctx, c.Args.Input, rec, opts)
	if err != nil {
		return err
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{
			"dry_run":   c.DryRun,
			"processed": stats.Processed,
			"inserted":  stats.Inserted,
			"skipped":   stats.Skipped,
			"errors":    stats.Errors,
		})
	}
	if opts.Progress != nil {
		fmt.Println()
	}
	fmt.Println(stats.Summary(c.DryRun))
	return nil
}
