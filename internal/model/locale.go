// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strings"
)

// Locale is one of the content languages every translatable entity is
// published in.
type Locale string

// Supported locales
const (
	LocaleES Locale = "es"
	LocaleEN Locale = "en"
	LocaleFR Locale = "fr"
	LocaleJA Locale = "ja"
	LocaleZH Locale = "zh"
)

// DefaultLocale is used when a request does not name one.
const DefaultLocale = LocaleEN

// ErrInvalidLocale is returned when a code is not in the locale set.
var ErrInvalidLocale = errors.New("invalid locale")

// AllLocales lists every supported locale in a stable order.
var AllLocales = []Locale{LocaleES, LocaleEN, LocaleFR, LocaleJA, LocaleZH}

var localeNames = map[Locale]struct {
	Name       string
	NativeName string
}{
	LocaleES: {"Spanish", "Español"},
	LocaleEN: {"English", "English"},
	LocaleFR: {"French", "Français"},
	LocaleJA: {"Japanese", "日本語"},
	LocaleZH: {"Chinese", "中文"},
}

// ParseLocale validates a locale code. Surrounding whitespace and case are ignored.
func ParseLocale(s string) (Locale, error) {
	l := Locale(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocale, s)
	}
	return l, nil
}

// Valid reports whether l is a supported locale.
func (l Locale) Valid() bool {
	_, ok := localeNames[l]
	return ok
}

// Name returns the English name of the language, as used in prompts.
func (l Locale) Name() string {
	if n, ok := localeNames[l]; ok {
		return n.Name
	}
	return string(l)
}

// NativeName returns the language name in the language itself.
func (l Locale) NativeName() string {
	if n, ok := localeNames[l]; ok {
		return n.NativeName
	}
	return string(l)
}

func (l Locale) String() string {
	return string(l)
}
