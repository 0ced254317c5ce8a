package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/historyview/internal/normalize"
)

// Reader exposes the read side of the history database.
type Reader interface {
	ListVisits(ctx context.Context) ([]VisitRow, error)
	ListDomains(ctx context.Context) ([]DomainRecord, error)
	ListSecondaryCategories(ctx context.Context) (map[string][]string, error)
	GetStats(ctx context.Context) (*Stats, error)
}

// Store defines the write operations loaders and enrichers use.
type Store interface {
	Reader
	EnsureDomain(ctx context.Context, domain, title string) error
	RecordVisit(ctx context.Context, rec VisitRecord) (bool, error)
	SetFavicon(ctx context.Context, domain, mimeType string, data []byte) error
	SetPrimaryCategory(ctx context.Context, domain, tag string) error
	AddSecondaryCategory(ctx context.Context, domain, tag string) error
	ApplyCategories(ctx context.Context, u CategoryUpdate) (CategoryResult, error)
	Close() error
}

// queries holds the read-only SQL shared by SQLiteStore and Snapshot.
type queries struct {
	db *sql.DB
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	queries

	// Prepared statements
	findDomain   *sql.Stmt
	insertDomain *sql.Stmt
	findVisit    *sql.Stmt
	insertVisit  *sql.Stmt
	bumpVisits   *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{queries: queries{db: db}}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.findDomain, err = s.db.Prepare(`SELECT title FROM domains WHERE domain = ?`)
	if err != nil {
		return err
	}

	s.insertDomain, err = s.db.Prepare(`
		INSERT INTO domains (domain, title, num_visits, checked)
		VALUES (?, ?, 0, 0)
	`)
	if err != nil {
		return err
	}

	s.findVisit, err = s.db.Prepare(`
		SELECT 1 FROM visits WHERE domain = ? AND timestamp = ? LIMIT 1
	`)
	if err != nil {
		return err
	}

	s.insertVisit, err = s.db.Prepare(`INSERT INTO visits (domain, timestamp) VALUES (?, ?)`)
	if err != nil {
		return err
	}

	s.bumpVisits, err = s.db.Prepare(`UPDATE domains SET num_visits = num_visits + 1 WHERE domain = ?`)
	if err != nil {
		return err
	}

	return nil
}

// EnsureDomain inserts domain if it is new, or fills in its title when the
// stored one is blank.
func (s *SQLiteStore) EnsureDomain(ctx context.Context, domain, title string) error {
	return ensureDomain(ctx, s.findDomain, s.insertDomain, s.db, domain, title)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func ensureDomain(ctx context.Context, find, insert *sql.Stmt, exec execer, domain, title string) error {
	var stored sql.NullString
	err := find.QueryRowContext(ctx, domain).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := insert.ExecContext(ctx, domain, nullString(title)); err != nil {
			return fmt.Errorf("insert domain: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("find domain: %w", err)
	}

	if title != "" && strings.TrimSpace(stored.String) == "" {
		if _, err := exec.ExecContext(ctx, "UPDATE domains SET title = ? WHERE domain = ?", title, domain); err != nil {
			return fmt.Errorf("update title: %w", err)
		}
	}
	return nil
}

// RecordVisit stores rec in a single transaction, creating its domain row
// when needed. A visit already present for the same domain and timestamp is
// not inserted again; the returned bool reports whether a row was added.
func (s *SQLiteStore) RecordVisit(ctx context.Context, rec VisitRecord) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	find := tx.StmtContext(ctx, s.findDomain)
	insert := tx.StmtContext(ctx, s.insertDomain)
	if err := ensureDomain(ctx, find, insert, tx, rec.Domain, rec.Title); err != nil {
		return false, err
	}

	var one int
	err = tx.StmtContext(ctx, s.findVisit).QueryRowContext(ctx, rec.Domain, rec.Timestamp).Scan(&one)
	if err == nil {
		return false, tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("find visit: %w", err)
	}

	if _, err := tx.StmtContext(ctx, s.insertVisit).ExecContext(ctx, rec.Domain, rec.Timestamp); err != nil {
		return false, fmt.Errorf("insert visit: %w", err)
	}
	if _, err := tx.StmtContext(ctx, s.bumpVisits).ExecContext(ctx, rec.Domain); err != nil {
		return false, fmt.Errorf("update visit count: %w", err)
	}

	return true, tx.Commit()
}

// SetFavicon stores icon bytes and their MIME type and marks the domain checked.
func (s *SQLiteStore) SetFavicon(ctx context.Context, domain, mimeType string, data []byte) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE domains
		SET favicon_type = ?, favicon_data = ?, checked = 1, check_timestamp = ?
		WHERE domain = ?`,
		nullString(mimeType), data, time.Now().UTC().Format(normalize.TimestampLayout), domain,
	)
	if err != nil {
		return fmt.Errorf("set favicon: %w", err)
	}
	return expectOneRow(res, domain)
}

// SetPrimaryCategory stores tag as the domain's main category; "" clears it.
func (s *SQLiteStore) SetPrimaryCategory(ctx context.Context, domain, tag string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE domains SET main_category = ? WHERE domain = ?", nullString(tag), domain,
	)
	if err != nil {
		return fmt.Errorf("set primary category: %w", err)
	}
	return expectOneRow(res, domain)
}

// AddSecondaryCategory attaches tag to domain. Re-adding a tag is a no-op.
func (s *SQLiteStore) AddSecondaryCategory(ctx context.Context, domain, tag string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO secondary_categories (domain, tag) VALUES (?, ?)", domain, tag,
	)
	if err != nil {
		return fmt.Errorf("add secondary category: %w", err)
	}
	return nil
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.findDomain, s.insertDomain, s.findVisit, s.insertVisit, s.bumpVisits,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}

// ListVisits returns every visit ordered by timestamp. Blank timestamps are
// skipped; anything else that is not in canonical form is an error.
func (q queries) ListVisits(ctx context.Context) ([]VisitRow, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT domain, timestamp FROM visits ORDER BY timestamp, id")
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	visits := []VisitRow{}
	for rows.Next() {
		var domain, ts sql.NullString
		if err := rows.Scan(&domain, &ts); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		raw := strings.TrimSpace(ts.String)
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation(normalize.TimestampLayout, raw, time.UTC)
		if err != nil {
			return nil, &normalize.ParseError{Raw: raw, Reason: "stored timestamp not in canonical form"}
		}
		visits = append(visits, VisitRow{Domain: normalize.Host(domain.String), Timestamp: t})
	}

	return visits, rows.Err()
}

// ListDomains returns every row of the domains table ordered by domain.
func (q queries) ListDomains(ctx context.Context) ([]DomainRecord, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT domain, title, main_category, favicon_type, favicon_data
		FROM domains ORDER BY domain
	`)
	if err != nil {
		return nil, fmt.Errorf("query domains: %w", err)
	}
	defer rows.Close()

	domains := []DomainRecord{}
	for rows.Next() {
		var domain, title, category, mime sql.NullString
		var data []byte
		if err := rows.Scan(&domain, &title, &category, &mime, &data); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		rec := DomainRecord{
			Domain:          normalize.Host(domain.String),
			Title:           normalize.CleanText(title.String),
			PrimaryCategory: strings.TrimSpace(category.String),
			FaviconType:     strings.TrimSpace(mime.String),
		}
		if len(data) > 0 {
			rec.FaviconData = data
		}
		domains = append(domains, rec)
	}

	return domains, rows.Err()
}

// ListSecondaryCategories returns the raw tags attached to each domain. A
// database without the secondary_categories table yields an empty map.
func (q queries) ListSecondaryCategories(ctx context.Context) (map[string][]string, error) {
	var present int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'secondary_categories'",
	).Scan(&present)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if present == 0 {
		return map[string][]string{}, nil
	}

	rows, err := q.db.QueryContext(ctx, "SELECT domain, tag FROM secondary_categories ORDER BY domain, tag")
	if err != nil {
		return nil, fmt.Errorf("query secondary categories: %w", err)
	}
	defer rows.Close()

	tags := map[string][]string{}
	for rows.Next() {
		var domain, tag sql.NullString
		if err := rows.Scan(&domain, &tag); err != nil {
			return nil, fmt.Errorf("scan secondary category: %w", err)
		}
		name := normalize.Host(domain.String)
		if name == "" || strings.TrimSpace(tag.String) == "" {
			continue
		}
		tags[name] = append(tags[name], tag.String)
	}

	return tags, rows.Err()
}

// GetStats returns aggregate statistics about the database.
func (q queries) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visits").Scan(&stats.TotalVisits)
	if err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}

	err = q.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(CASE WHEN TRIM(COALESCE(main_category, '')) != '' THEN 1 END),
		       COUNT(favicon_data)
		FROM domains
	`).Scan(&stats.TotalDomains, &stats.CategorizedDomains, &stats.FaviconDomains)
	if err != nil {
		return nil, fmt.Errorf("count domains: %w", err)
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalVisits > 0 {
		var oldestStr, newestStr string
		err = q.db.QueryRowContext(ctx, "SELECT MIN(timestamp), MAX(timestamp) FROM visits").Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("visit time range: %w", err)
		}
		stats.OldestVisit, _ = time.ParseInLocation(normalize.TimestampLayout, oldestStr, time.UTC)
		stats.NewestVisit, _ = time.ParseInLocation(normalize.TimestampLayout, newestStr, time.UTC)
	}

	var pageCount, pageSize int64
	if err := q.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := q.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			stats.DatabaseSizeBytes = pageCount * pageSize
		}
	}

	rows, err := q.db.QueryContext(ctx,
		"SELECT domain, COUNT(*) AS cnt FROM visits GROUP BY domain ORDER BY cnt DESC, domain LIMIT 10",
	)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}

	return stats, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOneRow(res sql.Result, domain string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("domain %s not found", domain)
	}
	return nil
}
