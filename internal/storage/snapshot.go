package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrSnapshotNotFound is returned when the database file does not exist.
	ErrSnapshotNotFound = errors.New("history database not found")
	// ErrSchema is returned when a database lacks the required tables.
	ErrSchema = errors.New("history database schema incomplete")
)

var requiredTables = []string{"visits", "domains"}

// Snapshot is a read-only view of a history database. Opening it never
// creates or migrates anything.
type Snapshot struct {
	queries
	path string
}

// OpenSnapshot opens the database at path read-only and checks that the
// visits and domains tables exist.
func OpenSnapshot(path string) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("stat database: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	dsn := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Snapshot{queries: queries{db: db}, path: path}
	if err := s.validateSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file the snapshot reads.
func (s *Snapshot) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Snapshot) Close() error {
	return s.db.Close()
}

func (s *Snapshot) validateSchema() error {
	rows, err := s.db.Query("SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	defer rows.Close()

	existing := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("read schema: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	var missing []string
	for _, table := range requiredTables {
		if !existing[table] {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: missing tables %s (run init first)", ErrSchema, strings.Join(missing, ", "))
	}
	return nil
}
