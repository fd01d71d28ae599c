// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"

	"github.com/olegiv/ocms-blog/internal/model"
)

// post_count is derived on every read and never stored.
const categorySelect = `SELECT c.id, c.name, c.slug, c.description,
	(SELECT count(*) FROM posts p WHERE p.category_id = c.id) AS post_count,
	c.created_at, c.updated_at
	FROM categories c`

func scanCategory(row scanner) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.PostCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a category.
func (s *Store) CreateCategory(ctx context.Context, c *model.Category) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO categories (name, slug, description) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Slug, c.Description,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating category: %w", err)
	}
	return nil
}

// UpdateCategory overwrites a category's name, slug and description.
func (s *Store) UpdateCategory(ctx context.Context, c *model.Category) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE categories SET name = $2, slug = $3, description = $4, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Slug, c.Description,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating category %d: %w", c.ID, notFound(err))
	}
	return nil
}

// GetCategory returns a category with its current post count.
func (s *Store) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx, categorySelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("getting category %d: %w", id, notFound(err))
	}
	return c, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.pool.Query(ctx, categorySelect+` ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// CategorySlugExists reports whether another category already uses slug.
func (s *Store) CategorySlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)`, slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking category slug: %w", err)
	}
	return exists, nil
}

// UpsertCategoryTranslation writes the (category, locale) row, creating it
// if absent. created reports whether a new row was inserted.
func (s *Store) UpsertCategoryTranslation(ctx context.Context, t *model.CategoryTranslation) (created bool, err error) {
	err = s.pool.QueryRow(ctx, `
		INSERT INTO category_translations (category_id, locale, translated_name, translated_description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT category_translations_category_locale_key DO UPDATE
		SET translated_name = EXCLUDED.translated_name,
			translated_description = EXCLUDED.translated_description,
			updated_at = now()
		RETURNING id, created_at, updated_at, (xmax = 0)`,
		t.CategoryID, t.Locale, t.TranslatedName, t.TranslatedDescription,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("upserting category translation %d/%s: %w", t.CategoryID, t.Locale, err)
	}
	return created, nil
}

// ListCategoryTranslations returns every locale row of a category.
func (s *Store) ListCategoryTranslations(ctx context.Context, categoryID int64) ([]model.CategoryTranslation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, category_id, locale, translated_name, translated_description, created_at, updated_at
		FROM category_translations WHERE category_id = $1 ORDER BY locale`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing category translations: %w", err)
	}
	defer rows.Close()

	var out []model.CategoryTranslation
	for rows.Next() {
		var t model.CategoryTranslation
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.Locale, &t.TranslatedName,
			&t.TranslatedDescription, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning category translation: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
