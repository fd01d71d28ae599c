// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"

	"github.com/olegiv/ocms-blog/internal/model"
)

const postColumns = `id, title, slug, excerpt, content, cover_image_id, cover_thumbnail_id,
	category_id, author_id, published, published_date, views, likes,
	meta_title, meta_description, created_at, updated_at`

func scanPost(row scanner) (*model.Post, error) {
	var p model.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.CoverImageID, &p.CoverThumbnailID,
		&p.CategoryID, &p.AuthorID, &p.Published, &p.PublishedDate, &p.Views, &p.Likes,
		&p.MetaTitle, &p.MetaDescription, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePost inserts a post and fills in its ID and timestamps.
func (s *Store) CreatePost(ctx context.Context, p *model.Post) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO posts (title, slug, excerpt, content, cover_image_id, cover_thumbnail_id,
			category_id, author_id, published, published_date, views, likes, regenerate,
			meta_title, meta_description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`,
		p.Title, p.Slug, p.Excerpt, p.Content, p.CoverImageID, p.CoverThumbnailID,
		p.CategoryID, p.AuthorID, p.Published, p.PublishedDate, p.Views, p.Likes, p.Regenerate,
		p.MetaTitle, p.MetaDescription,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating post: %w", err)
	}
	return nil
}

// UpdatePost overwrites every stored field of a post.
func (s *Store) UpdatePost(ctx context.Context, p *model.Post) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE posts SET title = $2, slug = $3, excerpt = $4, content = $5, cover_image_id = $6,
			cover_thumbnail_id = $7, category_id = $8, author_id = $9, published = $10,
			published_date = $11, views = $12, likes = $13, regenerate = $14,
			meta_title = $15, meta_description = $16, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		p.ID, p.Title, p.Slug, p.Excerpt, p.Content, p.CoverImageID,
		p.CoverThumbnailID, p.CategoryID, p.AuthorID, p.Published,
		p.PublishedDate, p.Views, p.Likes, p.Regenerate,
		p.MetaTitle, p.MetaDescription,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating post %d: %w", p.ID, notFound(err))
	}
	return nil
}

// GetPost returns a post by ID.
func (s *Store) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("getting post %d: %w", id, notFound(err))
	}
	return p, nil
}

// ListPosts returns a page of posts, newest first, and the total count.
func (s *Store) ListPosts(ctx context.Context, limit, offset int) ([]model.Post, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting posts: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("listing posts: %w", err)
	}
	return posts, total, nil
}

// PostSlugExists reports whether another post already uses slug.
func (s *Store) PostSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`, slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking post slug: %w", err)
	}
	return exists, nil
}
