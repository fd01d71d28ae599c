// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package writer expands a short post draft into a long-form Markdown
// article and provides it in every supported locale.
package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/olegiv/ocms-blog/internal/ai"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/translate"
)

// ErrEmptyDraft is reported for every locale when the draft has no title or
// no content.
var ErrEmptyDraft = errors.New("draft has no title or content")

// ErrEmptyArticle is reported when the model returns no usable article.
var ErrEmptyArticle = errors.New("generated article is empty")

const systemPrompt = "You are an expert technology writer. Write long-form articles in Markdown " +
	"(not JSON or rich text). Use a title (#) and subheadings (##), long paragraphs, technical depth " +
	"and at least 1200 words. Write in the language of the draft. Do not add placeholder links, " +
	"notes about the article or unnecessary headings. Include a short code example only when the " +
	"topic calls for it. Return only the article in Markdown."

// Chatter runs a chat completion.
type Chatter interface {
	Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error)
}

// Draft is the author-supplied input.
type Draft struct {
	Title   string
	Excerpt string
	Content string
}

// Outcome is the article for one locale, or the reason it is missing.
type Outcome struct {
	Text string
	Err  error
}

// OK reports whether the locale has usable text.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Result maps every supported locale to its outcome. Native is the detected
// language of the generated article, empty when detection failed.
type Result struct {
	Article string
	Native  model.Locale
	Locales map[model.Locale]Outcome
}

// Failed returns the locales whose outcome carries an error.
func (r *Result) Failed() []model.Locale {
	var failed []model.Locale
	for _, l := range model.AllLocales {
		if o, ok := r.Locales[l]; !ok || !o.OK() {
			failed = append(failed, l)
		}
	}
	return failed
}

func failAll(err error) *Result {
	r := &Result{Locales: make(map[model.Locale]Outcome, len(model.AllLocales))}
	for _, l := range model.AllLocales {
		r.Locales[l] = Outcome{Err: err}
	}
	return r
}

// Writer generates articles with one chat model and translates them with a
// translate.Translator.
type Writer struct {
	chat       Chatter
	translator translate.Translator
	logger     *slog.Logger
}

// New creates a Writer.
func New(chat Chatter, translator translate.Translator, logger *slog.Logger) *Writer {
	return &Writer{chat: chat, translator: translator, logger: logger}
}

// Write generates the article and its translations. The returned Result
// always covers every locale. A non-nil error means the article itself could
// not be produced; in that case every locale carries the same error.
func (w *Writer) Write(ctx context.Context, d Draft) (*Result, error) {
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Content) == "" {
		return failAll(ErrEmptyDraft), ErrEmptyDraft
	}

	article, err := w.generate(ctx, d)
	if err != nil {
		err = fmt.Errorf("generating article: %w", err)
		return failAll(err), err
	}

	native, ok := DetectLocale(article)
	if !ok {
		w.logger.Warn("could not detect article language, translating to every locale",
			"title", d.Title)
	}

	res := &Result{
		Article: article,
		Native:  native,
		Locales: make(map[model.Locale]Outcome, len(model.AllLocales)),
	}
	if ok {
		res.Locales[native] = Outcome{Text: article}
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, locale := range model.AllLocales {
		if ok && locale == native {
			continue
		}
		g.Go(func() error {
			text, err := w.translator.TranslateMarkdown(ctx, article, locale)
			if err == nil && text == "" {
				err = translate.ErrEmptyTranslation
			}
			if err != nil {
				w.logger.Warn("article translation failed", "locale", locale, "error", err)
			}
			mu.Lock()
			res.Locales[locale] = Outcome{Text: text, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return res, nil
}

func (w *Writer) generate(ctx context.Context, d Draft) (string, error) {
	resp, err := w.chat.Chat(ctx, ai.ChatRequest{
		System: systemPrompt,
		User:   userPrompt(d),
	})
	if err != nil {
		return "", err
	}
	article := translate.StripCodeFence(resp.Content)
	if article == "" {
		return "", ErrEmptyArticle
	}
	return article, nil
}

func userPrompt(d Draft) string {
	return fmt.Sprintf("Title: %s\n\nBase content: %s\n\nSuggested angle: %q",
		strings.TrimSpace(d.Title), strings.TrimSpace(d.Content), strings.TrimSpace(d.Excerpt))
}

var detectOptions = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Spa: true,
		whatlanggo.Eng: true,
		whatlanggo.Fra: true,
		whatlanggo.Jpn: true,
		whatlanggo.Cmn: true,
	},
}

// DetectLocale identifies the language of text among the supported locales.
// It reports false when the language is not one of them.
func DetectLocale(text string) (model.Locale, bool) {
	info := whatlanggo.DetectWithOptions(text, detectOptions)
	if !detectOptions.Whitelist[info.Lang] {
		return "", false
	}
	return localeForCode(info.Lang.Iso6391())
}

// localeForCode maps an ISO 639 code or BCP 47 tag to a supported locale.
func localeForCode(code string) (model.Locale, bool) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	l, err := model.ParseLocale(base.String())
	if err != nil {
		return "", false
	}
	return l, true
}
