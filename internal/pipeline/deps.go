// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"context"

	"github.com/olegiv/ocms-blog/internal/imaging"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/store"
	"github.com/olegiv/ocms-blog/internal/writer"
)

// PostStore is the part of the document store the post pipeline reads and
// writes.
type PostStore interface {
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	PostSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	UpsertPostTranslation(ctx context.Context, t *model.PostTranslation) (created bool, err error)
	ListPostTranslations(ctx context.Context, postID int64) ([]model.PostTranslation, error)
}

// CategoryStore is the part of the document store the category pipeline
// uses.
type CategoryStore interface {
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	CategorySlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	UpsertCategoryTranslation(ctx context.Context, t *model.CategoryTranslation) (created bool, err error)
}

// EmbeddingStore reads translations and writes their vectors.
type EmbeddingStore interface {
	ListPostTranslations(ctx context.Context, postID int64) ([]model.PostTranslation, error)
	ListTranslationsMissingEmbedding(ctx context.Context, limit int) ([]model.PostTranslation, error)
	GetEmbedding(ctx context.Context, postTranslationID int64, locale model.Locale) (*model.EmbeddingRecord, error)
	UpsertEmbedding(ctx context.Context, rec *model.EmbeddingRecord) error
}

// SearchStore runs the nearest-neighbour query and hydrates its hits.
type SearchStore interface {
	NearestTranslations(ctx context.Context, locale model.Locale, query []float32, limit int) ([]store.VectorMatch, error)
	ListPostTranslationsByIDs(ctx context.Context, ids []int64) ([]model.PostTranslation, error)
}

// MediaSink stores an image in the media collection.
type MediaSink interface {
	SaveImage(ctx context.Context, blob imaging.Blob, alt string) (*model.Media, error)
}

// ContentWriter expands a draft into an article in every locale.
type ContentWriter interface {
	Write(ctx context.Context, d writer.Draft) (*writer.Result, error)
}

// CoverGenerator synthesizes a cover image from a prompt.
type CoverGenerator interface {
	Generate(ctx context.Context, prompt string) (*imaging.Cover, error)
}

// TextEmbedder returns the normalized embedding of a text.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
