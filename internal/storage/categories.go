package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// GetTaxonomy returns every category with its subcategories, ordered by id.
func (s *SQLiteStorage) GetTaxonomy(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.created_at, s.id, s.name
		FROM categories c
		LEFT JOIN subcategories s ON s.category_id = c.id
		ORDER BY c.id, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		var subID *int64
		var subName *string
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.CreatedAt, &subID, &subName); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}

		if n := len(categories); n == 0 || categories[n-1].ID != cat.ID {
			categories = append(categories, cat)
		}
		if subID != nil && subName != nil {
			last := &categories[len(categories)-1]
			last.Subcategories = append(last.Subcategories, model.Subcategory{
				ID:         *subID,
				CategoryID: cat.ID,
				Name:       *subName,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved taxonomy", "categories", len(categories))
	return categories, nil
}

// SeedTaxonomy inserts the given categories when the database has none.
// It reports whether anything was written.
func (s *SQLiteStorage) SeedTaxonomy(ctx context.Context, categories []model.Category) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&existing); err != nil {
		return false, fmt.Errorf("failed to count categories: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	for _, cat := range categories {
		if err := validateString(cat.Name, "category name"); err != nil {
			return false, err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, strings.TrimSpace(cat.Name))
		if err != nil {
			return false, fmt.Errorf("failed to create category %q: %w", cat.Name, err)
		}
		categoryID, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("failed to read category id: %w", err)
		}

		for _, sub := range cat.Subcategories {
			if err := validateString(sub.Name, "subcategory name"); err != nil {
				return false, err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO subcategories (category_id, name) VALUES (?, ?)
			`, categoryID, strings.TrimSpace(sub.Name)); err != nil {
				return false, fmt.Errorf("failed to create subcategory %q: %w", sub.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit taxonomy: %w", err)
	}

	slog.Info("Seeded category taxonomy", "categories", len(categories))
	return true, nil
}
