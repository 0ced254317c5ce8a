package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ErrAlreadyExists is returned by InitDB when the file exists and force is off.
var ErrAlreadyExists = errors.New("database already exists")

// OpenDB opens (creating if needed) the database at path for writing and
// applies all migrations.
func OpenDB(path, journalMode string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	runner := NewMigrationRunner(db)
	runner.JournalMode = journalMode
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Open is OpenDB followed by NewSQLiteStore.
func Open(path, journalMode string) (*SQLiteStore, *sql.DB, error) {
	db, err := OpenDB(path, journalMode)
	if err != nil {
		return nil, nil, err
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// InitDB creates a fresh database at path. An existing file is left alone
// unless force is set, in which case it is removed first.
func InitDB(path, journalMode string, force bool) error {
	if _, err := os.Stat(path); err == nil {
		if !force {
			return fmt.Errorf("%w: %s (use --force to recreate)", ErrAlreadyExists, path)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove existing database: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat database: %w", err)
	}

	db, err := OpenDB(path, journalMode)
	if err != nil {
		return err
	}
	return db.Close()
}
