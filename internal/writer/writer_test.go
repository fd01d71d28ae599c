// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package writer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/olegiv/ocms-blog/internal/ai"
	"github.com/olegiv/ocms-blog/internal/model"
)

const englishArticle = "# Intro to Caches\n\n" +
	"A cache keeps the results of expensive work close to the code that needs them. " +
	"When the same question is asked again, the answer is returned from memory instead of " +
	"being computed or fetched from the network a second time.\n\n" +
	"## Why it matters\n\nThe difference between a hit and a miss is often several orders of magnitude."

type fakeChat struct {
	mu    sync.Mutex
	calls []ai.ChatRequest
	reply string
	err   error
}

func (f *fakeChat) Chat(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &ai.ChatResponse{Content: f.reply}, nil
}

type fakeTranslator struct {
	mu    sync.Mutex
	calls map[model.Locale]int
	fail  map[model.Locale]error
}

func (f *fakeTranslator) Translate(ctx context.Context, text string, locale model.Locale) (string, error) {
	return f.TranslateMarkdown(ctx, text, locale)
}

func (f *fakeTranslator) TranslateMarkdown(_ context.Context, text string, locale model.Locale) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[model.Locale]int{}
	}
	f.calls[locale]++
	if err := f.fail[locale]; err != nil {
		return "", err
	}
	return "[" + string(locale) + "] " + text, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWrite_AllLocales(t *testing.T) {
	chat := &fakeChat{reply: "```markdown\n" + englishArticle + "\n```"}
	tr := &fakeTranslator{}
	w := New(chat, tr, discard())

	res, err := w.Write(context.Background(), Draft{Title: "Intro to Caches", Content: "short draft"})
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	if res.Native != model.LocaleEN {
		t.Errorf("Native = %q, want en", res.Native)
	}
	if res.Article != englishArticle {
		t.Errorf("Article was not unwrapped from its code fence: %q", res.Article)
	}
	if len(res.Locales) != len(model.AllLocales) {
		t.Fatalf("Locales = %d, want %d", len(res.Locales), len(model.AllLocales))
	}
	if got := res.Locales[model.LocaleEN]; got.Text != englishArticle || !got.OK() {
		t.Errorf("native outcome = %+v, want the article", got)
	}
	for _, l := range []model.Locale{model.LocaleES, model.LocaleFR, model.LocaleJA, model.LocaleZH} {
		o := res.Locales[l]
		if !o.OK() || !strings.HasPrefix(o.Text, "["+string(l)+"]") {
			t.Errorf("outcome[%s] = %+v", l, o)
		}
	}
	if tr.calls[model.LocaleEN] != 0 {
		t.Error("native locale should not be translated")
	}
	if len(res.Failed()) != 0 {
		t.Errorf("Failed() = %v, want none", res.Failed())
	}

	if len(chat.calls) != 1 {
		t.Fatalf("chat calls = %d, want 1", len(chat.calls))
	}
	user := chat.calls[0].User
	if !strings.Contains(user, "Title: Intro to Caches") || !strings.Contains(user, "Base content: short draft") {
		t.Errorf("user prompt = %q", user)
	}
	if !strings.Contains(chat.calls[0].System, "1200 words") {
		t.Errorf("system prompt = %q", chat.calls[0].System)
	}
}

func TestWrite_OneLocaleFails(t *testing.T) {
	boom := errors.New("upstream 503")
	chat := &fakeChat{reply: englishArticle}
	tr := &fakeTranslator{fail: map[model.Locale]error{model.LocaleJA: boom}}
	w := New(chat, tr, discard())

	res, err := w.Write(context.Background(), Draft{Title: "Intro to Caches", Content: "short draft"})
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if o := res.Locales[model.LocaleJA]; !errors.Is(o.Err, boom) {
		t.Errorf("ja outcome error = %v, want %v", o.Err, boom)
	}
	if failed := res.Failed(); len(failed) != 1 || failed[0] != model.LocaleJA {
		t.Errorf("Failed() = %v, want [ja]", failed)
	}
	for _, l := range []model.Locale{model.LocaleES, model.LocaleEN, model.LocaleFR, model.LocaleZH} {
		if !res.Locales[l].OK() {
			t.Errorf("outcome[%s] failed: %v", l, res.Locales[l].Err)
		}
	}
}

func TestWrite_EmptyDraft(t *testing.T) {
	chat := &fakeChat{reply: englishArticle}
	w := New(chat, &fakeTranslator{}, discard())

	tests := []Draft{
		{Title: "", Content: "body"},
		{Title: "Title", Content: "  "},
	}
	for _, d := range tests {
		res, err := w.Write(context.Background(), d)
		if !errors.Is(err, ErrEmptyDraft) {
			t.Errorf("Write(%+v) error = %v, want ErrEmptyDraft", d, err)
		}
		if len(res.Failed()) != len(model.AllLocales) {
			t.Errorf("Write(%+v) failed locales = %v, want all", d, res.Failed())
		}
	}
	if len(chat.calls) != 0 {
		t.Errorf("chat calls = %d, want 0", len(chat.calls))
	}
}

func TestWrite_GenerationFails(t *testing.T) {
	boom := errors.New("status 500")
	tr := &fakeTranslator{}
	w := New(&fakeChat{err: boom}, tr, discard())

	res, err := w.Write(context.Background(), Draft{Title: "T", Content: "C"})
	if !errors.Is(err, boom) {
		t.Fatalf("Write() error = %v, want %v", err, boom)
	}
	for _, l := range model.AllLocales {
		if !errors.Is(res.Locales[l].Err, boom) {
			t.Errorf("outcome[%s] error = %v", l, res.Locales[l].Err)
		}
	}
	if len(tr.calls) != 0 {
		t.Error("translations must not run without an article")
	}

	w = New(&fakeChat{reply: "   "}, tr, discard())
	if _, err := w.Write(context.Background(), Draft{Title: "T", Content: "C"}); !errors.Is(err, ErrEmptyArticle) {
		t.Errorf("Write() error = %v, want ErrEmptyArticle", err)
	}
}

func TestWrite_UnknownLanguageTranslatesEveryLocale(t *testing.T) {
	russian := "Кэш хранит результаты дорогих вычислений рядом с кодом, который в них нуждается."
	tr := &fakeTranslator{}
	w := New(&fakeChat{reply: russian}, tr, discard())

	res, err := w.Write(context.Background(), Draft{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if res.Native != "" {
		t.Errorf("Native = %q, want empty", res.Native)
	}
	for _, l := range model.AllLocales {
		if tr.calls[l] != 1 {
			t.Errorf("translations to %s = %d, want 1", l, tr.calls[l])
		}
	}
}

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   model.Locale
		wantOK bool
	}{
		{"english", englishArticle, model.LocaleEN, true},
		{"japanese", "これは日本語の記事です。ここではキャッシュについてくわしく説明します。", model.LocaleJA, true},
		{"russian", "Кэш хранит результаты дорогих вычислений.", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectLocale(tt.text)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("DetectLocale() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLocaleForCode(t *testing.T) {
	tests := []struct {
		code   string
		want   model.Locale
		wantOK bool
	}{
		{"es", model.LocaleES, true},
		{"zh", model.LocaleZH, true},
		{"zh-Hans", model.LocaleZH, true},
		{"fr-CA", model.LocaleFR, true},
		{"de", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := localeForCode(tt.code)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("localeForCode(%q) = %q, %v; want %q, %v", tt.code, got, ok, tt.want, tt.wantOK)
		}
	}
}
