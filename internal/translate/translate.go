// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translate translates text into a target locale with a chat model.
package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/ocms-blog/internal/ai"
	"github.com/olegiv/ocms-blog/internal/cache"
	"github.com/olegiv/ocms-blog/internal/model"
)

// ErrEmptyTranslation is returned when the model answers a non-empty input
// with nothing.
var ErrEmptyTranslation = errors.New("empty translation")

// Mode selects the prompt used for a translation.
type Mode string

const (
	// ModePlain translates free text.
	ModePlain Mode = "plain"
	// ModeMarkdown translates a Markdown document keeping its structure.
	ModeMarkdown Mode = "markdown"
)

// Chatter runs a chat completion.
type Chatter interface {
	Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error)
}

// Translator is what callers of this package depend on.
type Translator interface {
	Translate(ctx context.Context, text string, locale model.Locale) (string, error)
	TranslateMarkdown(ctx context.Context, text string, locale model.Locale) (string, error)
}

// Service translates through a chat model, memoizing results in a cache.
type Service struct {
	chat     Chatter
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// New creates a Service. c may be nil to disable caching.
func New(chat Chatter, c cache.Cache, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{chat: chat, cache: c, cacheTTL: cacheTTL, logger: logger}
}

// Translate returns text translated into locale. Empty input yields empty
// output without an upstream call.
func (s *Service) Translate(ctx context.Context, text string, locale model.Locale) (string, error) {
	return s.translate(ctx, ModePlain, text, locale)
}

// TranslateMarkdown translates a Markdown document, keeping headings, lists,
// links and code blocks intact.
func (s *Service) TranslateMarkdown(ctx context.Context, text string, locale model.Locale) (string, error) {
	return s.translate(ctx, ModeMarkdown, text, locale)
}

func systemPrompt(mode Mode, locale model.Locale) string {
	if mode == ModeMarkdown {
		return fmt.Sprintf("You are a translator. Translate the following Markdown content to %s. "+
			"Do not alter the formatting. Return only the translated Markdown.", locale.Name())
	}
	return fmt.Sprintf("You are a translator. Translate everything to %s with no explanations. "+
		"Return only the translated text.", locale.Name())
}

func (s *Service) translate(ctx context.Context, mode Mode, text string, locale model.Locale) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if !locale.Valid() {
		return "", fmt.Errorf("translate: %w: %q", model.ErrInvalidLocale, locale)
	}

	key := cacheKey(mode, locale, text)
	if cached, ok := s.lookup(ctx, key); ok {
		return cached, nil
	}

	resp, err := s.chat.Chat(ctx, ai.ChatRequest{
		System: systemPrompt(mode, locale),
		User:   text,
		Locale: locale,
	})
	if err != nil {
		return "", fmt.Errorf("translating to %s: %w", locale, err)
	}

	out := strings.TrimSpace(resp.Content)
	if mode == ModeMarkdown {
		out = StripCodeFence(out)
	}
	if out == "" {
		return "", fmt.Errorf("translating to %s: %w", locale, ErrEmptyTranslation)
	}

	s.store(ctx, key, out)
	return out, nil
}

// cacheKey identifies a translation by mode, target locale and source text.
func cacheKey(mode Mode, locale model.Locale, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "tr:" + string(mode) + ":" + string(locale) + ":" + hex.EncodeToString(sum[:])
}

func (s *Service) lookup(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	val, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Debug("translation cache read failed", "error", err)
		}
		return "", false
	}
	return string(val), true
}

func (s *Service) store(ctx context.Context, key, value string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, []byte(value), s.cacheTTL); err != nil {
		s.logger.Debug("translation cache write failed", "error", err)
	}
}

// StripCodeFence removes a Markdown code fence wrapping the whole text,
// e.g. "```markdown\n...\n```". A fence tagged markdown may contain other
// fences; any other wrapper is only removed when nothing inside is fenced.
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 6 || !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") {
		return trimmed
	}
	inner := strings.TrimSuffix(trimmed, "```")
	nl := strings.IndexByte(inner, '\n')
	if nl < 0 {
		return trimmed
	}
	tag := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(inner[:nl], "```")))
	inner = inner[nl+1:]

	if tag != "markdown" && tag != "md" && hasFenceLine(inner) {
		return trimmed
	}
	return strings.TrimSpace(inner)
}

func hasFenceLine(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			return true
		}
	}
	return false
}
