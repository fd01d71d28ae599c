// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/olegiv/ocms-blog/internal/model"
)

// VectorMatch is one nearest-neighbour hit.
type VectorMatch struct {
	PostTranslationID int64
	Locale            model.Locale
	Distance          float64
	UpdatedAt         time.Time
}

// UpsertEmbedding writes the vector for (post_translation_id, locale),
// overwriting any previous one. rec.UpdatedAt is set from the database.
func (s *Store) UpsertEmbedding(ctx context.Context, rec *model.EmbeddingRecord) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO search.post_translation_vectors (post_translation_id, locale, embedding, content_hash, updated_at)
		VALUES ($1, $2, $3, $4, clock_timestamp())
		ON CONFLICT (post_translation_id, locale) DO UPDATE
		SET embedding = EXCLUDED.embedding,
			content_hash = EXCLUDED.content_hash,
			updated_at = clock_timestamp()
		RETURNING updated_at`,
		rec.PostTranslationID, rec.Locale, pgvector.NewVector(rec.Embedding), rec.ContentHash,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting embedding %d/%s: %w", rec.PostTranslationID, rec.Locale, err)
	}
	return nil
}

// GetEmbedding returns the stored vector for (post_translation_id, locale).
func (s *Store) GetEmbedding(ctx context.Context, postTranslationID int64, locale model.Locale) (*model.EmbeddingRecord, error) {
	var (
		rec model.EmbeddingRecord
		vec pgvector.Vector
	)
	err := s.pool.QueryRow(ctx, `
		SELECT post_translation_id, locale, embedding, content_hash, updated_at
		FROM search.post_translation_vectors
		WHERE post_translation_id = $1 AND locale = $2`, postTranslationID, locale,
	).Scan(&rec.PostTranslationID, &rec.Locale, &vec, &rec.ContentHash, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting embedding %d/%s: %w", postTranslationID, locale, notFound(err))
	}
	rec.Embedding = vec.Slice()
	return &rec, nil
}

// CountEmbeddings returns how many vector rows exist for a translation.
func (s *Store) CountEmbeddings(ctx context.Context, postTranslationID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM search.post_translation_vectors WHERE post_translation_id = $1`,
		postTranslationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// NearestTranslations returns up to limit vectors in locale ordered by
// ascending L2 distance to query.
func (s *Store) NearestTranslations(ctx context.Context, locale model.Locale, query []float32, limit int) ([]VectorMatch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT post_translation_id, locale, embedding <-> $2 AS distance, updated_at
		FROM search.post_translation_vectors
		WHERE locale = $1
		ORDER BY embedding <-> $2
		LIMIT $3`, locale, pgvector.NewVector(query), limit)
	if err != nil {
		return nil, fmt.Errorf("querying nearest vectors: %w", err)
	}
	defer rows.Close()

	var matches []VectorMatch
	for rows.Next() {
		var m VectorMatch
		if err := rows.Scan(&m.PostTranslationID, &m.Locale, &m.Distance, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning vector match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
