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

func seedTranslations(t *testing.T, st *testutil.MemStore) *model.Post {
	t.Helper()
	ctx := context.Background()
	post := &model.Post{Title: "Intro", Slug: "intro"}
	require.NoError(t, st.CreatePost(ctx, post))
	for _, l := range model.AllLocales {
		_, err := st.UpsertPostTranslation(ctx, &model.PostTranslation{
			PostID: post.ID, Locale: l, TranslatedTitle: "Title " + string(l),
			TranslatedContent: "Body\n\n  text " + string(l),
		})
		require.NoError(t, err)
	}
	return post
}

func TestEmbedPost_IdempotentByKey(t *testing.T) {
	st := testutil.NewMemStore()
	post := seedTranslations(t, st)
	emb := &fakeEmbedder{}
	e := NewEmbedder(st, emb, false, nil, testutil.TestLoggerSilent())
	ctx := context.Background()

	first, err := e.EmbedPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, EmbeddingSummary{Succeeded: 5}, first)

	es := st.TranslationFor(post.ID, model.LocaleES)
	before, err := st.GetEmbedding(ctx, es.ID, model.LocaleES)
	require.NoError(t, err)

	second, err := e.EmbedPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, EmbeddingSummary{Succeeded: 5}, second)
	assert.Equal(t, 10, emb.calls, "unchanged text is re-embedded by default")

	n, err := st.CountEmbeddings(ctx, es.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	after, err := st.GetEmbedding(ctx, es.ID, model.LocaleES)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, ContentHash("Title es Body text es"), after.ContentHash)
}

func TestEmbedPost_SkipUnchanged(t *testing.T) {
	st := testutil.NewMemStore()
	post := seedTranslations(t, st)
	emb := &fakeEmbedder{}
	e := NewEmbedder(st, emb, true, nil, testutil.TestLoggerSilent())
	ctx := context.Background()

	_, err := e.EmbedPost(ctx, post.ID)
	require.NoError(t, err)

	summary, err := e.EmbedPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, EmbeddingSummary{Skipped: 5}, summary)
	assert.Equal(t, 5, emb.calls)

	// Changed text is recomputed.
	fr := st.TranslationFor(post.ID, model.LocaleFR)
	fr.TranslatedContent = "new body"
	_, err = st.UpsertPostTranslation(ctx, fr)
	require.NoError(t, err)

	summary, err = e.EmbedPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, EmbeddingSummary{Succeeded: 1, Skipped: 4}, summary)
}

func TestEmbedPost_FailuresCounted(t *testing.T) {
	st := testutil.NewMemStore()
	post := seedTranslations(t, st)
	e := NewEmbedder(st, &fakeEmbedder{err: errors.New("model not loaded")}, false, nil, testutil.TestLoggerSilent())

	summary, err := e.EmbedPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, EmbeddingSummary{Failed: 5}, summary)
}

func TestBackfill(t *testing.T) {
	st := testutil.NewMemStore()
	seedTranslations(t, st)
	e := NewEmbedder(st, &fakeEmbedder{}, false, nil, testutil.TestLoggerSilent())
	ctx := context.Background()

	summary, err := e.Backfill(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Succeeded)

	summary, err = e.Backfill(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)

	missing, err := st.ListTranslationsMissingEmbedding(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, missing)
}
