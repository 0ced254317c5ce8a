package cli

import (
	"fmt"

	"github.com/runnerr0/historyview/internal/storage"
)

// Execute implements the go-flags Commander interface for InitCommand.
func (c *InitCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	path, err := resolveDBPath(c.globals, cfg)
	if err != nil {
		return err
	}
	return c.executeAt(path, cfg.Storage.SQLiteJournalMode)
}

// executeAt creates the database at path (used by tests).
func (c *InitCommand) executeAt(path, journalMode string) error {
	if err := storage.InitDB(path, journalMode, c.Force); err != nil {
		return err
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{"database": path, "recreated": c.Force})
	}
	fmt.Printf("Initialised history database at %s\n", path)
	return nil
}
