// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// Category groups posts. PostCount is computed when the category is read.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PostCount   int64     `json:"post_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryTranslation holds the localized name and description of a category.
type CategoryTranslation struct {
	ID                    int64     `json:"id"`
	CategoryID            int64     `json:"category_id"`
	Locale                Locale    `json:"locale"`
	TranslatedName        string    `json:"translated_name"`
	TranslatedDescription string    `json:"translated_description"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Subscriber is a newsletter subscription.
type Subscriber struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Locale       Locale    `json:"locale"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// CollapseWhitespace trims s and replaces every whitespace run with one space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
