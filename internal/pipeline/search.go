// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olegiv/ocms-blog/internal/metrics"
	"github.com/olegiv/ocms-blog/internal/model"
)

// SearchLimit is the maximum number of search results.
const SearchLimit = 5

// ErrEmptyQuery is returned for a blank search query.
var ErrEmptyQuery = errors.New("empty search query")

// SearchHit is a hydrated translation with its distance to the query.
type SearchHit struct {
	model.PostTranslation
	Distance float64 `json:"distance"`
}

// Searcher answers semantic search queries.
type Searcher struct {
	store   SearchStore
	gen     TextEmbedder
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(s SearchStore, gen TextEmbedder, m *metrics.Metrics, logger *slog.Logger) *Searcher {
	return &Searcher{store: s, gen: gen, metrics: m, logger: logger}
}

// Search embeds query and returns up to SearchLimit translations in locale,
// nearest first.
func (s *Searcher) Search(ctx context.Context, query string, locale model.Locale) (hits []SearchHit, err error) {
	defer func() { s.metrics.ObserveSearch(err) }()

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if !locale.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidLocale, locale)
	}

	vec, err := s.gen.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := s.store.NearestTranslations(ctx, locale, vec, SearchLimit)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []SearchHit{}, nil
	}

	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.PostTranslationID
	}
	docs, err := s.store.ListPostTranslationsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]model.PostTranslation, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	hits = make([]SearchHit, 0, len(matches))
	for _, m := range matches {
		doc, ok := byID[m.PostTranslationID]
		if !ok {
			s.logger.Debug("search hit without translation", "post_translation_id", m.PostTranslationID)
			continue
		}
		hits = append(hits, SearchHit{PostTranslation: doc, Distance: m.Distance})
	}
	return hits, nil
}
