// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"

	"github.com/olegiv/ocms-blog/internal/model"
)

const mediaColumns = `id, uuid, filename, mime_type, size, width, height, alt, url, created_at`

func scanMedia(row scanner) (*model.Media, error) {
	var m model.Media
	if err := row.Scan(&m.ID, &m.UUID, &m.Filename, &m.MimeType, &m.Size,
		&m.Width, &m.Height, &m.Alt, &m.URL, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMedia inserts a media record.
func (s *Store) CreateMedia(ctx context.Context, m *model.Media) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO media (uuid, filename, mime_type, size, width, height, alt, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		m.UUID, m.Filename, m.MimeType, m.Size, m.Width, m.Height, m.Alt, m.URL,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating media: %w", err)
	}
	return nil
}

// GetMedia returns a media record by ID.
func (s *Store) GetMedia(ctx context.Context, id int64) (*model.Media, error) {
	m, err := scanMedia(s.pool.QueryRow(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("getting media %d: %w", id, notFound(err))
	}
	return m, nil
}

// GetMediaByIDs returns the media records found for ids, keyed by ID.
func (s *Store) GetMediaByIDs(ctx context.Context, ids []int64) (map[int64]*model.Media, error) {
	out := make(map[int64]*model.Media, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("loading media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning media: %w", err)
		}
		out[m.ID] = m
	}
	return out, rows.Err()
}
