package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"

	"github.com/runnerr0/historyview/internal/aggregate"
	"github.com/runnerr0/historyview/internal/sprite"
	"github.com/runnerr0/historyview/internal/storage"
	"github.com/runnerr0/historyview/internal/taxonomy"
)

const (
	level0Name     = "level0.json"
	spriteDirName  = "sprites"
	dirPermissions = 0755
	filePermission = 0644
)

// Options configures one generation run.
type Options struct {
	DBPath         string
	OutputDir      string
	CategoriesPath string
	DomainMapPath  string
	// SpriteDir defaults to OutputDir/sprites.
	SpriteDir   string
	SkipSprites bool
	// Location is the zone visits are bucketed in; nil means UTC.
	Location *time.Location
	Logger   *slog.Logger
}

// Summary reports what a run wrote.
type Summary struct {
	Level0Entries int `json:"level0_entries"`
	Level1Files   int `json:"level1_files"`
	SpriteFiles   int `json:"sprite_files"`
}

// Level1Name is the file name of a slot's detail document.
func Level1Name(day, hour int) string {
	return fmt.Sprintf("level1-%d-%02d.json", day, hour)
}

// SpriteName is the file name of a slot's sprite sheet.
func SpriteName(day, hour int) string {
	return fmt.Sprintf("level1-%d-%02d.svg", day, hour)
}

// Input is the fully materialised state a run is computed from.
type Input struct {
	Slots      aggregate.Slots
	Metadata   Metadata
	Categories taxonomy.Categories
}

// Load reads the taxonomy, the overrides and a read-only snapshot of the
// database, and aggregates the visits. Nothing is written.
func Load(ctx context.Context, opts Options) (*Input, error) {
	cats, err := taxonomy.LoadCategories(opts.CategoriesPath)
	if err != nil {
		return nil, err
	}
	overrides, err := taxonomy.LoadOverrides(opts.DomainMapPath)
	if err != nil {
		return nil, err
	}

	snap, err := storage.OpenSnapshot(opts.DBPath)
	if err != nil {
		return nil, err
	}
	defer snap.Close()

	visits, err := snap.ListVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("load visits: %w", err)
	}
	domains, err := snap.ListDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("load domains: %w", err)
	}
	secondary, err := snap.ListSecondaryCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load secondary categories: %w", err)
	}

	slots := aggregate.Aggregate(visits, opts.Location)
	return &Input{
		Slots:      slots,
		Metadata:   Resolve(slots.Domains(), domains, secondary, overrides),
		Categories: cats,
	}, nil
}

// WriteOutputs runs the whole pipeline: load, aggregate, build, write.
// Existing files are overwritten. The first write failure aborts the run;
// files already written by then are left in place.
func WriteOutputs(ctx context.Context, opts Options) (*Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	in, err := Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded history snapshot",
		"db", opts.DBPath,
		"slots", len(in.Slots),
		"domains", len(in.Metadata),
	)

	if err := os.MkdirAll(opts.OutputDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	level0 := BuildLevel0(in.Slots)
	if err := writeJSON(filepath.Join(opts.OutputDir, level0Name), level0); err != nil {
		return nil, err
	}
	summary := &Summary{Level0Entries: len(level0)}

	spriteDir := opts.SpriteDir
	if spriteDir == "" {
		spriteDir = filepath.Join(opts.OutputDir, spriteDirName)
	}
	spriteRel := spriteDirName
	if !opts.SkipSprites {
		if err := os.MkdirAll(spriteDir, dirPermissions); err != nil {
			return nil, fmt.Errorf("create sprite directory: %w", err)
		}
		if rel, err := filepath.Rel(opts.OutputDir, spriteDir); err == nil {
			spriteRel = filepath.ToSlash(rel)
		}
	}

	for _, key := range in.Slots.Keys() {
		slot := in.Slots[key]

		spritePath := ""
		if !opts.SkipSprites {
			name := SpriteName(slot.Day, slot.Hour)
			doc, err := sprite.Render(SpriteSymbols(slot, in.Metadata))
			if err != nil {
				return summary, err
			}
			if err := os.WriteFile(filepath.Join(spriteDir, name), doc, filePermission); err != nil {
				return summary, fmt.Errorf("write sprite %s: %w", name, err)
			}
			summary.SpriteFiles++
			spritePath = path.Join(spriteRel, name)
		}

		level1 := BuildLevel1(slot, in.Metadata, in.Categories, spritePath)
		name := Level1Name(slot.Day, slot.Hour)
		if err := writeJSON(filepath.Join(opts.OutputDir, name), level1); err != nil {
			return summary, err
		}
		summary.Level1Files++
		logger.Debug("wrote slot", "day", slot.Day, "hour", slot.Hour, "visits", slot.Total)
	}

	logger.Info("generated dataset",
		"output", opts.OutputDir,
		"level0_entries", summary.Level0Entries,
		"level1_files", summary.Level1Files,
		"sprite_files", summary.SpriteFiles,
	)
	return summary, nil
}

// MarshalJSON encodes v with two-space indentation and a stable field order.
func MarshalJSON(v any) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(v, "", "  ")
}

func writeJSON(file string, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(file), err)
	}
	if err := os.WriteFile(file, data, filePermission); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(file), err)
	}
	return nil
}
