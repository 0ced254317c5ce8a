package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/runnerr0/historyview/internal/normalize"
	"github.com/runnerr0/historyview/internal/storage"
)

// DefaultFeedbackInterval is how many records pass between progress dots.
const DefaultFeedbackInterval = 100

// Recorder stores one visit and reports whether it was new.
type Recorder interface {
	RecordVisit(ctx context.Context, rec storage.VisitRecord) (bool, error)
}

// Stats counts what a load did.
type Stats struct {
	Processed int
	Inserted  int
	Skipped   int
	Errors    int
}

// Summary renders s the way the load commands print it.
func (s Stats) Summary(dryRun bool) string {
	action := "Applied"
	if dryRun {
		action = "Dry-run"
	}
	return fmt.Sprintf("%s: processed %d, inserted %d, skipped %d, errors %d",
		action, s.Processed, s.Inserted, s.Skipped, s.Errors)
}

// Options controls ProcessRecords.
type Options struct {
	// DryRun counts records without calling the Recorder.
	DryRun bool
	// Limit stops after this many records; 0 means no limit.
	Limit     int
	Blocklist normalize.Blocklist
	// Progress receives a "." every FeedbackInterval records when non-nil.
	Progress         io.Writer
	FeedbackInterval int
	Logger           *slog.Logger
}

// ProcessRecords writes entries through rec. Entries that failed to
// normalise count as errors, blocklisted domains and duplicates as skipped.
// A failed insert is logged and counted; it does not stop the load. In a
// dry run nothing is written and every allowed record counts as skipped.
func ProcessRecords(ctx context.Context, entries []Entry, rec Recorder, opts Options) (Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := opts.FeedbackInterval
	if interval <= 0 {
		interval = DefaultFeedbackInterval
	}

	var stats Stats
	for _, entry := range entries {
		if opts.Limit > 0 && stats.Processed >= opts.Limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Processed++

		if entry.Err != nil {
			stats.Errors++
			logger.Error("invalid record", "index", stats.Processed, "error", entry.Err)
			continue
		}
		visit := entry.Record
		if opts.Blocklist.Blocks(visit.Domain) {
			stats.Skipped++
			logger.Debug("blocklisted", "domain", visit.Domain)
			continue
		}
		if opts.Progress != nil && stats.Processed%interval == 0 {
			fmt.Fprint(opts.Progress, ".")
		}
		if opts.DryRun {
			stats.Skipped++
			continue
		}

		inserted, err := rec.RecordVisit(ctx, visit)
		if err != nil {
			stats.Errors++
			logger.Error("record visit failed", "index", stats.Processed, "domain", visit.Domain, "error", err)
			continue
		}
		if inserted {
			stats.Inserted++
			logger.Debug("insert", "domain", visit.Domain, "timestamp", visit.Timestamp)
		} else {
			stats.Skipped++
			logger.Debug("skip", "domain", visit.Domain, "timestamp", visit.Timestamp)
		}
	}

	return stats, nil
}

// LoadEdgeFile parses the Edge export at path and processes its records.
func LoadEdgeFile(ctx context.Context, path string, rec Recorder, opts Options) (Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, fmt.Errorf("read export: %w", err)
	}
	entries, err := ParseEdgeRecords(data, opts.Logger)
	if err != nil {
		return Stats{}, err
	}
	return ProcessRecords(ctx, entries, rec, opts)
}
