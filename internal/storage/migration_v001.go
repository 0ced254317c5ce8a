package storage

import (
	"context"
	"database/sql"
)

// migrateV001 creates the history schema: visits, domains and the
// secondary category relation. Every statement uses IF NOT EXISTS for
// idempotency.
func migrateV001(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS domains (
			domain          TEXT PRIMARY KEY,
			title           TEXT,
			num_visits      INTEGER NOT NULL DEFAULT 0,
			checked         BOOLEAN NOT NULL DEFAULT 0 CHECK (checked IN (0, 1)),
			check_timestamp TEXT,
			favicon_type    TEXT,
			favicon_data    BLOB,
			main_category   TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS visits (
			id        INTEGER PRIMARY KEY,
			domain    TEXT NOT NULL REFERENCES domains(domain) ON DELETE CASCADE,
			timestamp TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS secondary_categories (
			domain TEXT NOT NULL REFERENCES domains(domain) ON DELETE CASCADE,
			tag    TEXT NOT NULL,
			PRIMARY KEY (domain, tag)
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_visits_domain_timestamp ON visits(domain, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_timestamp_domain ON visits(timestamp, domain)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_domain           ON visits(domain)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
