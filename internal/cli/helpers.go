package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/bytedance/sonic"

	"github.com/runnerr0/historyview/internal/config"
	"github.com/runnerr0/historyview/internal/storage"
)

// loadConfig reads the file named by --config, or the default config file.
// A missing file is created with defaults.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		path, err := config.ExpandPath(globals.Config)
		if err != nil {
			return nil, err
		}
		return config.LoadOrCreateAt(path)
	}
	return config.LoadOrCreate()
}

// resolveDBPath prefers --db over the configured storage location.
func resolveDBPath(globals *GlobalFlags, cfg *config.Config) (string, error) {
	if globals != nil && globals.DB != "" {
		return config.ExpandPath(globals.DB)
	}
	return cfg.DBPath()
}

// pathOr expands flag when set and fallback otherwise.
func pathOr(flag, fallback string) (string, error) {
	if flag != "" {
		return config.ExpandPath(flag)
	}
	return config.ExpandPath(fallback)
}

// newLogger builds the configured logger on stderr; --verbose forces debug.
func newLogger(globals *GlobalFlags, cfg *config.Config) (*slog.Logger, error) {
	lc := cfg.Logging
	if globals != nil && globals.Verbose {
		lc.Level = "debug"
	}
	return config.NewLogger(lc, os.Stderr)
}

// openStore opens the database at path for writing, running migrations.
func openStore(path string, cfg *config.Config) (*storage.SQLiteStore, *sql.DB, error) {
	store, db, err := storage.Open(path, cfg.Storage.SQLiteJournalMode)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return store, db, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}

func wantJSON(globals *GlobalFlags) bool {
	return globals != nil && globals.JSON
}
