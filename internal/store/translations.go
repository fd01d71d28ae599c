// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
)

const translationColumns = `t.id, t.post_id, t.locale, t.slug, t.translated_title, t.translated_excerpt,
	t.translated_content, t.meta_title, t.meta_description, t.category_slug, t.created_at, t.updated_at`

func scanTranslation(row scanner) (*model.PostTranslation, error) {
	var t model.PostTranslation
	err := row.Scan(&t.ID, &t.PostID, &t.Locale, &t.Slug, &t.TranslatedTitle, &t.TranslatedExcerpt,
		&t.TranslatedContent, &t.MetaTitle, &t.MetaDescription, &t.CategorySlug, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertPostTranslation writes the (post, locale) row in one statement,
// relying on the unique constraint instead of a lookup. created reports
// whether a new row was inserted.
func (s *Store) UpsertPostTranslation(ctx context.Context, t *model.PostTranslation) (created bool, err error) {
	err = s.pool.QueryRow(ctx, `
		INSERT INTO post_translations (post_id, locale, slug, translated_title, translated_excerpt,
			translated_content, meta_title, meta_description, category_slug)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT post_translations_post_locale_key DO UPDATE
		SET slug = EXCLUDED.slug,
			translated_title = EXCLUDED.translated_title,
			translated_excerpt = EXCLUDED.translated_excerpt,
			translated_content = EXCLUDED.translated_content,
			meta_title = EXCLUDED.meta_title,
			meta_description = EXCLUDED.meta_description,
			category_slug = EXCLUDED.category_slug,
			updated_at = now()
		RETURNING id, created_at, updated_at, (xmax = 0)`,
		t.PostID, t.Locale, t.Slug, t.TranslatedTitle, t.TranslatedExcerpt,
		t.TranslatedContent, t.MetaTitle, t.MetaDescription, t.CategorySlug,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("upserting post translation %d/%s: %w", t.PostID, t.Locale, err)
	}
	return created, nil
}

// FindPostTranslation returns the row for (post, locale).
func (s *Store) FindPostTranslation(ctx context.Context, postID int64, locale model.Locale) (*model.PostTranslation, error) {
	t, err := scanTranslation(s.pool.QueryRow(ctx,
		`SELECT `+translationColumns+` FROM post_translations t WHERE t.post_id = $1 AND t.locale = $2`,
		postID, locale))
	if err != nil {
		return nil, fmt.Errorf("finding post translation %d/%s: %w", postID, locale, notFound(err))
	}
	return t, nil
}

// GetPostTranslation returns a translation by ID.
func (s *Store) GetPostTranslation(ctx context.Context, id int64) (*model.PostTranslation, error) {
	t, err := scanTranslation(s.pool.QueryRow(ctx,
		`SELECT `+translationColumns+` FROM post_translations t WHERE t.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("getting post translation %d: %w", id, notFound(err))
	}
	return t, nil
}

// ListPostTranslations returns every locale row of a post.
func (s *Store) ListPostTranslations(ctx context.Context, postID int64) ([]model.PostTranslation, error) {
	return s.queryTranslations(ctx,
		`SELECT `+translationColumns+` FROM post_translations t WHERE t.post_id = $1 ORDER BY t.locale`, postID)
}

// ListTranslationsMissingEmbedding returns translations with no vector row.
func (s *Store) ListTranslationsMissingEmbedding(ctx context.Context, limit int) ([]model.PostTranslation, error) {
	return s.queryTranslations(ctx, `
		SELECT `+translationColumns+` FROM post_translations t
		LEFT JOIN search.post_translation_vectors v
			ON v.post_translation_id = t.id AND v.locale = t.locale
		WHERE v.post_translation_id IS NULL
		ORDER BY t.id
		LIMIT $1`, limit)
}

func (s *Store) queryTranslations(ctx context.Context, query string, args ...any) ([]model.PostTranslation, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying post translations: %w", err)
	}
	defer rows.Close()

	var out []model.PostTranslation
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post translation: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ListPostTranslationsByIDs loads translations with their post, the post's
// category and cover media expanded. Order follows the database; callers
// that care about order re-sort.
func (s *Store) ListPostTranslationsByIDs(ctx context.Context, ids []int64) ([]model.PostTranslation, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+translationColumns+`,
			p.id, p.title, p.slug, p.excerpt, p.content, p.cover_image_id, p.cover_thumbnail_id,
			p.category_id, p.author_id, p.published, p.published_date, p.views, p.likes,
			p.meta_title, p.meta_description, p.created_at, p.updated_at,
			c.id, c.name, c.slug, c.description, c.created_at, c.updated_at
		FROM post_translations t
		JOIN posts p ON p.id = t.post_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE t.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("loading post translations: %w", err)
	}
	defer rows.Close()

	var (
		out      []model.PostTranslation
		mediaIDs []int64
	)
	for rows.Next() {
		var (
			t model.PostTranslation
			p model.Post
			c struct {
				ID          *int64
				Name        *string
				Slug        *string
				Description *string
				CreatedAt   *time.Time
				UpdatedAt   *time.Time
			}
		)
		err := rows.Scan(&t.ID, &t.PostID, &t.Locale, &t.Slug, &t.TranslatedTitle, &t.TranslatedExcerpt,
			&t.TranslatedContent, &t.MetaTitle, &t.MetaDescription, &t.CategorySlug, &t.CreatedAt, &t.UpdatedAt,
			&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.CoverImageID, &p.CoverThumbnailID,
			&p.CategoryID, &p.AuthorID, &p.Published, &p.PublishedDate, &p.Views, &p.Likes,
			&p.MetaTitle, &p.MetaDescription, &p.CreatedAt, &p.UpdatedAt,
			&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning post translation: %w", err)
		}
		if c.ID != nil {
			p.Category = &model.Category{
				ID: *c.ID, Name: *c.Name, Slug: *c.Slug, Description: *c.Description,
				CreatedAt: *c.CreatedAt, UpdatedAt: *c.UpdatedAt,
			}
		}
		if p.CoverImageID != nil {
			mediaIDs = append(mediaIDs, *p.CoverImageID)
		}
		if p.CoverThumbnailID != nil {
			mediaIDs = append(mediaIDs, *p.CoverThumbnailID)
		}
		t.Post = &p
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading post translations: %w", err)
	}

	media, err := s.GetMediaByIDs(ctx, mediaIDs)
	if err != nil {
		return nil, err
	}
	for i := range out {
		p := out[i].Post
		if p.CoverImageID != nil {
			p.CoverImage = media[*p.CoverImageID]
		}
		if p.CoverThumbnailID != nil {
			p.CoverThumbnail = media[*p.CoverThumbnailID]
		}
	}

	return out, nil
}
