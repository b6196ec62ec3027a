package sqlite

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/utils"
)

// ListCategories returns every category ordered by name.
func (d *DB) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := d.QueryContext(ctx, `
		select id, name, slug, description
		from categories
		order by name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer utils.Close(rows)

	out := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertCategories inserts or updates categories by slug in one transaction.
// Categories that are not listed are left alone.
func (d *DB) UpsertCategories(ctx context.Context, cats []domain.Category) (int, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		insert into categories (id, name, slug, description)
		values (?, ?, ?, ?)
		on conflict(slug) do update set
			name = excluded.name,
			description = excluded.description`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer utils.Close(stmt)

	for _, c := range cats {
		if _, err := stmt.ExecContext(ctx, c.ID, c.Name, c.Slug, c.Description); err != nil {
			return 0, fmt.Errorf("failed to upsert category %s: %w", c.Slug, mapErr(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit categories: %w", err)
	}
	return len(cats), nil
}
