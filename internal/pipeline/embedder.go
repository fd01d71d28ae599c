// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/ocms-blog/internal/metrics"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/store"
)

// EmbeddingSummary counts per-translation embedding outcomes.
type EmbeddingSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

func (s *EmbeddingSummary) add(o EmbeddingSummary) {
	s.Succeeded += o.Succeeded
	s.Failed += o.Failed
	s.Skipped += o.Skipped
}

// Embedder computes and stores one vector per post translation.
type Embedder struct {
	store         EmbeddingStore
	gen           TextEmbedder
	skipUnchanged bool
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewEmbedder creates an Embedder. With skipUnchanged, translations whose
// text hash matches the stored vector are not re-embedded.
func NewEmbedder(s EmbeddingStore, gen TextEmbedder, skipUnchanged bool, m *metrics.Metrics, logger *slog.Logger) *Embedder {
	return &Embedder{store: s, gen: gen, skipUnchanged: skipUnchanged, metrics: m, logger: logger}
}

// EmbedPost embeds every translation of a post. Individual failures are
// counted, not returned; an error means the translations could not be listed.
func (e *Embedder) EmbedPost(ctx context.Context, postID int64) (EmbeddingSummary, error) {
	translations, err := e.store.ListPostTranslations(ctx, postID)
	if err != nil {
		return EmbeddingSummary{}, fmt.Errorf("listing translations of post %d: %w", postID, err)
	}
	summary := e.EmbedTranslations(ctx, translations)
	e.logger.Info("post embeddings updated", "post_id", postID,
		"succeeded", summary.Succeeded, "failed", summary.Failed, "skipped", summary.Skipped)
	return summary, nil
}

// Backfill embeds up to limit translations that have no vector yet.
func (e *Embedder) Backfill(ctx context.Context, limit int) (EmbeddingSummary, error) {
	translations, err := e.store.ListTranslationsMissingEmbedding(ctx, limit)
	if err != nil {
		return EmbeddingSummary{}, fmt.Errorf("listing translations without embedding: %w", err)
	}
	if len(translations) == 0 {
		return EmbeddingSummary{}, nil
	}
	summary := e.EmbedTranslations(ctx, translations)
	e.logger.Info("embedding backfill finished",
		"succeeded", summary.Succeeded, "failed", summary.Failed, "skipped", summary.Skipped)
	return summary, nil
}

// EmbedTranslations embeds the given translations concurrently.
func (e *Embedder) EmbedTranslations(ctx context.Context, translations []model.PostTranslation) EmbeddingSummary {
	var (
		mu      sync.Mutex
		summary EmbeddingSummary
		g       errgroup.Group
	)
	for i := range translations {
		t := &translations[i]
		g.Go(func() error {
			var one EmbeddingSummary
			switch skipped, err := e.embedOne(ctx, t); {
			case err != nil:
				e.logger.Warn("embedding failed", "category", model.EventCategoryEmbedding,
					"post_id", t.PostID, "post_translation_id", t.ID, "locale", t.Locale, "error", err)
				one.Failed = 1
			case skipped:
				one.Skipped = 1
			default:
				one.Succeeded = 1
			}
			mu.Lock()
			summary.add(one)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	e.metrics.AddEmbeddings(summary.Succeeded, summary.Failed, summary.Skipped)
	return summary
}

func (e *Embedder) embedOne(ctx context.Context, t *model.PostTranslation) (skipped bool, err error) {
	text := t.EmbeddingText()
	hash := ContentHash(text)

	if e.skipUnchanged {
		existing, err := e.store.GetEmbedding(ctx, t.ID, t.Locale)
		switch {
		case err == nil && existing.ContentHash == hash:
			return true, nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			e.logger.Debug("could not read stored embedding, recomputing",
				"post_translation_id", t.ID, "error", err)
		}
	}

	vec, err := e.gen.Embed(ctx, text)
	if err != nil {
		return false, err
	}
	return false, e.store.UpsertEmbedding(ctx, &model.EmbeddingRecord{
		PostTranslationID: t.ID,
		Locale:            t.Locale,
		Embedding:         vec,
		ContentHash:       hash,
	})
}

// ContentHash identifies the text a vector was computed from.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
