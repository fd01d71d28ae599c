// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pipeline reacts to post and category writes: it synthesizes cover
// images, regenerates and translates content for every locale, and keeps the
// semantic search vectors in sync.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/olegiv/ocms-blog/internal/metrics"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/store"
	"github.com/olegiv/ocms-blog/internal/translate"
	"github.com/olegiv/ocms-blog/internal/util"
	"github.com/olegiv/ocms-blog/internal/writer"
)

// ErrMissingCategory is reported when a post to translate has no category.
var ErrMissingCategory = errors.New("post has no category")

// Run modes used in metrics.
const (
	modeRegenerate = "regenerate"
	modeEmbed      = "embed"
)

// LocaleOutcome is the result of writing one locale's translation.
type LocaleOutcome struct {
	TranslationID int64 `json:"translation_id,omitempty"`
	Created       bool  `json:"created"`
	Err           error `json:"-"`
}

// OK reports whether the locale row was written.
func (o LocaleOutcome) OK() bool {
	return o.Err == nil
}

// RunReport summarizes one post pipeline run.
type RunReport struct {
	PostID      int64
	Regenerated bool
	// TranslationErr is set when the translation step was skipped or the
	// article could not be generated.
	TranslationErr error
	Locales        map[model.Locale]LocaleOutcome
	Embeddings     EmbeddingSummary
	// Err is set when the run could not proceed at all.
	Err error
}

// Failed returns the locales whose row was not written.
func (r *RunReport) Failed() []model.Locale {
	var out []model.Locale
	for _, l := range model.AllLocales {
		if o, ok := r.Locales[l]; ok && !o.OK() {
			out = append(out, l)
		}
	}
	return out
}

// ReadRetry configures how a run waits for the committed document to become
// readable.
type ReadRetry struct {
	Attempts uint64
	Base     time.Duration
}

// DefaultReadRetry retries five times starting at 20ms.
var DefaultReadRetry = ReadRetry{Attempts: 5, Base: 20 * time.Millisecond}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Posts      PostStore
	Categories CategoryStore
	Media      MediaSink
	Writer     ContentWriter
	Translator translate.Translator
	Covers     CoverGenerator
	Embedder   *Embedder
	Runner     *Runner
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	ReadRetry  ReadRetry
}

// Pipeline is the post and category pipeline orchestrator.
type Pipeline struct {
	posts      PostStore
	categories CategoryStore
	media      MediaSink
	writer     ContentWriter
	translator translate.Translator
	covers     CoverGenerator
	embedder   *Embedder
	runner     *Runner
	metrics    *metrics.Metrics
	logger     *slog.Logger
	readRetry  ReadRetry

	// OnRun, when set, receives every finished post run report.
	OnRun func(*RunReport)
}

// New creates a Pipeline. A nil Runner gets a default one.
func New(d Deps) *Pipeline {
	if d.Runner == nil {
		d.Runner = NewRunner(d.Logger)
	}
	if d.ReadRetry.Attempts == 0 {
		d.ReadRetry = DefaultReadRetry
	}
	return &Pipeline{
		posts:      d.Posts,
		categories: d.Categories,
		media:      d.Media,
		writer:     d.Writer,
		translator: d.Translator,
		covers:     d.Covers,
		embedder:   d.Embedder,
		runner:     d.Runner,
		metrics:    d.Metrics,
		logger:     d.Logger,
		readRetry:  d.ReadRetry,
	}
}

// Runner returns the runner executing scheduled runs.
func (p *Pipeline) Runner() *Runner {
	return p.runner
}

// Embedder returns the embedding pipeline.
func (p *Pipeline) Embedder() *Embedder {
	return p.embedder
}

// SchedulePost queues a run for a committed post.
func (p *Pipeline) SchedulePost(postID int64, regenerate bool) bool {
	return p.runner.Schedule("post:"+strconv.FormatInt(postID, 10), regenerate,
		func(ctx context.Context, regenerate bool) {
			report := p.RunPost(ctx, postID, regenerate)
			if p.OnRun != nil {
				p.OnRun(report)
			}
		})
}

// RunPost executes one pipeline run for a committed post: content
// regeneration and translation when requested, then embeddings. Failures are
// recorded in the report, never returned.
func (p *Pipeline) RunPost(ctx context.Context, postID int64, regenerate bool) *RunReport {
	started := time.Now()
	report := &RunReport{PostID: postID, Locales: map[model.Locale]LocaleOutcome{}}
	mode := modeEmbed
	if regenerate {
		mode = modeRegenerate
	}
	defer func() { p.metrics.ObservePipelineRun(mode, started, report.Err) }()

	post, err := readAfterWrite(ctx, p.readRetry, func(ctx context.Context) (*model.Post, error) {
		return p.posts.GetPost(ctx, postID)
	})
	if err != nil {
		report.Err = fmt.Errorf("reading post %d: %w", postID, err)
		p.logger.Error("pipeline run aborted", "category", model.EventCategoryPipeline,
			"post_id", postID, "error", err)
		return report
	}

	if regenerate {
		report.Regenerated = true
		report.TranslationErr = p.regenerate(ctx, post, report.Locales)
	}

	summary, err := p.embedder.EmbedPost(ctx, post.ID)
	report.Embeddings = summary
	if err != nil {
		report.Err = err
		p.logger.Error("embedding step failed", "category", model.EventCategoryEmbedding,
			"post_id", post.ID, "error", err)
	}

	p.logger.Info("pipeline run finished", "post_id", post.ID, "regenerate", regenerate,
		"failed_locales", len(report.Failed()), "embedded", summary.Succeeded,
		"embed_failed", summary.Failed, "duration", time.Since(started))
	return report
}

// regenerate builds the article for every locale and upserts the locale
// rows. A locale whose article or fields could not be produced is left
// untouched.
func (p *Pipeline) regenerate(ctx context.Context, post *model.Post, outcomes map[model.Locale]LocaleOutcome) error {
	if !post.HasCategory() {
		p.logger.Warn("post has no category, skipping translation",
			"category", model.EventCategoryPipeline, "post_id", post.ID)
		return ErrMissingCategory
	}
	category, err := p.posts.GetCategory(ctx, *post.CategoryID)
	if err != nil {
		p.logger.Warn("post category not readable, skipping translation",
			"category", model.EventCategoryPipeline, "post_id", post.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrMissingCategory, err)
	}

	result, genErr := p.writer.Write(ctx, writer.Draft{
		Title:   post.Title,
		Excerpt: post.Excerpt,
		Content: post.Content,
	})
	if genErr != nil {
		p.logger.Error("content generation failed", "category", model.EventCategoryPipeline,
			"post_id", post.ID, "error", genErr)
	}
	if result == nil {
		result = &writer.Result{}
	}

	// The author's short fields are kept verbatim only on the row whose
	// language they are written in.
	authorLocale, known := writer.DetectLocale(strings.Join(
		[]string{post.Title, post.Excerpt, post.MetaTitle, post.MetaDescription}, "\n"))
	keepAuthorFields := known && authorLocale == result.Native

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, locale := range model.AllLocales {
		g.Go(func() error {
			o := p.writeLocale(ctx, post, category, locale, result, keepAuthorFields)
			if o.OK() {
				p.metrics.ObserveLocale(string(locale), metrics.ResultSuccess)
			} else {
				p.metrics.ObserveLocale(string(locale), metrics.ResultFailure)
				p.logger.Warn("locale translation failed", "category", model.EventCategoryTranslation,
					"post_id", post.ID, "locale", locale, "error", o.Err)
			}
			mu.Lock()
			outcomes[locale] = o
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return genErr
}

func (p *Pipeline) writeLocale(ctx context.Context, post *model.Post, category *model.Category,
	locale model.Locale, result *writer.Result, keepAuthorFields bool) LocaleOutcome {
	article, ok := result.Locales[locale]
	if !ok {
		return LocaleOutcome{Err: fmt.Errorf("no article for %s", locale)}
	}
	if !article.OK() {
		return LocaleOutcome{Err: article.Err}
	}

	fields, err := p.localizeFields(ctx, post, locale, keepAuthorFields && locale == result.Native)
	if err != nil {
		return LocaleOutcome{Err: err}
	}

	slug := util.Slugify(fields.title)
	if slug == "" {
		slug = post.Slug
	}

	t := &model.PostTranslation{
		PostID:            post.ID,
		Locale:            locale,
		Slug:              slug,
		TranslatedTitle:   fields.title,
		TranslatedExcerpt: fields.excerpt,
		TranslatedContent: article.Text,
		MetaTitle:         fields.metaTitle,
		MetaDescription:   fields.metaDescription,
		CategorySlug:      category.Slug,
	}
	created, err := p.posts.UpsertPostTranslation(ctx, t)
	if err != nil {
		return LocaleOutcome{Err: err}
	}
	p.logger.Debug("post translation written", "post_id", post.ID, "locale", locale, "created", created)
	return LocaleOutcome{TranslationID: t.ID, Created: created}
}

type localizedFields struct {
	title           string
	excerpt         string
	metaTitle       string
	metaDescription string
}

// localizeFields translates the short post fields. With native set the
// author's text is kept.
func (p *Pipeline) localizeFields(ctx context.Context, post *model.Post, locale model.Locale, native bool) (localizedFields, error) {
	if native {
		return localizedFields{
			title:           post.Title,
			excerpt:         post.Excerpt,
			metaTitle:       post.MetaTitle,
			metaDescription: post.MetaDescription,
		}, nil
	}

	var f localizedFields
	targets := []struct {
		src string
		dst *string
	}{
		{post.Title, &f.title},
		{post.Excerpt, &f.excerpt},
		{post.MetaTitle, &f.metaTitle},
		{post.MetaDescription, &f.metaDescription},
	}
	for _, tgt := range targets {
		out, err := p.translator.Translate(ctx, tgt.src, locale)
		if err != nil {
			return localizedFields{}, err
		}
		*tgt.dst = out
	}
	return f, nil
}

// readAfterWrite reads a just-committed document, retrying with exponential
// backoff while the store reports it as not found.
func readAfterWrite[T any](ctx context.Context, rr ReadRetry, read func(context.Context) (T, error)) (T, error) {
	var out T
	b := retry.WithMaxRetries(rr.Attempts, retry.NewExponential(rr.Base))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		v, err := read(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
