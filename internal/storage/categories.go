package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CategoryUpdate is a category assignment for one domain. When SetPrimary is
// false the stored primary category is left alone; otherwise it becomes
// Primary, "" clearing it. Secondary replaces the stored secondary tags.
type CategoryUpdate struct {
	Domain     string
	Primary    string
	SetPrimary bool
	Secondary  []string
}

// CategoryResult reports what ApplyCategories changed.
type CategoryResult struct {
	Found            bool
	SecondaryDeleted int64
	SecondaryAdded   int64
}

// ApplyCategories writes u in a single transaction. A domain that has no
// row is reported with Found false and nothing is written.
func (s *SQLiteStore) ApplyCategories(ctx context.Context, u CategoryUpdate) (CategoryResult, error) {
	var res CategoryResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var title sql.NullString
	err = tx.StmtContext(ctx, s.findDomain).QueryRowContext(ctx, u.Domain).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("find domain: %w", err)
	}
	res.Found = true

	if u.SetPrimary {
		if _, err := tx.ExecContext(ctx,
			"UPDATE domains SET main_category = ? WHERE domain = ?", nullString(u.Primary), u.Domain,
		); err != nil {
			return res, fmt.Errorf("set primary category: %w", err)
		}
	}

	deleted, err := tx.ExecContext(ctx, "DELETE FROM secondary_categories WHERE domain = ?", u.Domain)
	if err != nil {
		return res, fmt.Errorf("clear secondary categories: %w", err)
	}
	res.SecondaryDeleted, _ = deleted.RowsAffected()

	for _, tag := range u.Secondary {
		added, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO secondary_categories (domain, tag) VALUES (?, ?)", u.Domain, tag,
		)
		if err != nil {
			return res, fmt.Errorf("add secondary category: %w", err)
		}
		n, _ := added.RowsAffected()
		res.SecondaryAdded += n
	}

	return res, tx.Commit()
}
