// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"testing"
)

func TestParseLocale(t *testing.T) {
	tests := []struct {
		in      string
		want    Locale
		wantErr bool
	}{
		{"en", LocaleEN, false},
		{" JA ", LocaleJA, false},
		{"zh", LocaleZH, false},
		{"de", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocale(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLocale) {
					t.Errorf("ParseLocale(%q) error = %v, want ErrInvalidLocale", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocale(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLocale(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAllLocalesHaveNames(t *testing.T) {
	if len(AllLocales) != 5 {
		t.Fatalf("len(AllLocales) = %d, want 5", len(AllLocales))
	}
	for _, l := range AllLocales {
		if !l.Valid() {
			t.Errorf("%s.Valid() = false", l)
		}
		if l.Name() == string(l) {
			t.Errorf("%s.Name() has no display name", l)
		}
	}
}

func TestEmbeddingText(t *testing.T) {
	tr := &PostTranslation{
		TranslatedTitle:   "  Intro to   Caches ",
		TranslatedContent: "# Caches\n\nA cache\tstores  data.\n",
	}
	want := "Intro to Caches # Caches A cache stores data."
	if got := tr.EmbeddingText(); got != want {
		t.Errorf("EmbeddingText() = %q, want %q", got, want)
	}
}

func TestPostHelpers(t *testing.T) {
	var zero int64
	one := int64(1)

	p := &Post{}
	if p.HasCover() || p.HasCategory() {
		t.Error("empty post should have no cover and no category")
	}
	p.CoverImageID = &zero
	if p.HasCover() {
		t.Error("HasCover() = true for zero id")
	}
	p.CoverImageID = &one
	p.CategoryID = &one
	if !p.HasCover() || !p.HasCategory() {
		t.Error("HasCover()/HasCategory() = false with ids set")
	}
}
