// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/testutil"
)

type fixedEmbedder struct {
	vec []float32
	err error
}

func (f fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vec, f.err
}

// seedVectors stores n translations per locale with vectors [i, 0].
func seedVectors(t *testing.T, st *testutil.MemStore, n int) {
	t.Helper()
	ctx := context.Background()
	post := &model.Post{Title: "p", Slug: "p"}
	require.NoError(t, st.CreatePost(ctx, post))

	for _, locale := range []model.Locale{model.LocaleEN, model.LocaleFR} {
		for i := 0; i < n; i++ {
			pt := &model.PostTranslation{PostID: post.ID, Locale: locale, TranslatedTitle: "t"}
			// Each (post, locale) is unique, so spread rows over distinct posts.
			if i > 0 {
				p := &model.Post{Title: "p", Slug: "p-" + string(locale) + string(rune('a'+i))}
				require.NoError(t, st.CreatePost(ctx, p))
				pt.PostID = p.ID
			}
			_, err := st.UpsertPostTranslation(ctx, pt)
			require.NoError(t, err)
			require.NoError(t, st.UpsertEmbedding(ctx, &model.EmbeddingRecord{
				PostTranslationID: pt.ID, Locale: locale, Embedding: []float32{float32(i), 0},
			}))
		}
	}
}

func TestSearch_TopFiveInLocaleByDistance(t *testing.T) {
	st := testutil.NewMemStore()
	seedVectors(t, st, 8)
	s := NewSearcher(st, fixedEmbedder{vec: []float32{2.2, 0}}, nil, testutil.TestLoggerSilent())

	hits, err := s.Search(context.Background(), "caches", model.LocaleFR)
	require.NoError(t, err)
	require.Len(t, hits, SearchLimit)

	for i, h := range hits {
		assert.Equal(t, model.LocaleFR, h.Locale)
		require.NotNil(t, h.Post, "hit %d not hydrated", i)
		if i > 0 {
			assert.LessOrEqual(t, hits[i-1].Distance, h.Distance)
		}
	}
	assert.InDelta(t, 0.2, hits[0].Distance, 1e-6)
	assert.Equal(t, 1, st.VectorQueries)
}

func TestSearch_EmptyQuery(t *testing.T) {
	st := testutil.NewMemStore()
	s := NewSearcher(st, fixedEmbedder{vec: []float32{1}}, nil, testutil.TestLoggerSilent())

	_, err := s.Search(context.Background(), "  ", model.LocaleEN)
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, st.VectorQueries)
}

func TestSearch_Errors(t *testing.T) {
	st := testutil.NewMemStore()
	boom := errors.New("extractor down")

	s := NewSearcher(st, fixedEmbedder{err: boom}, nil, testutil.TestLoggerSilent())
	_, err := s.Search(context.Background(), "q", model.LocaleEN)
	assert.ErrorIs(t, err, boom)

	_, err = s.Search(context.Background(), "q", "de")
	assert.ErrorIs(t, err, model.ErrInvalidLocale)
	assert.Zero(t, st.VectorQueries)
}

func TestSearch_NoVectors(t *testing.T) {
	s := NewSearcher(testutil.NewMemStore(), fixedEmbedder{vec: []float32{1}}, nil, testutil.TestLoggerSilent())
	hits, err := s.Search(context.Background(), "q", model.LocaleEN)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}
