// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Post is a blog post draft. Long-form content for every locale lives in
// PostTranslation rows derived from it.
type Post struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	Excerpt          string     `json:"excerpt"`
	Content          string     `json:"content"`
	CoverImageID     *int64     `json:"cover_image_id,omitempty"`
	CoverThumbnailID *int64     `json:"cover_thumbnail_id,omitempty"`
	CategoryID       *int64     `json:"category_id,omitempty"`
	AuthorID         *int64     `json:"author_id,omitempty"`
	Published        bool       `json:"published"`
	PublishedDate    *time.Time `json:"published_date,omitempty"`
	Views            int64      `json:"views"`
	Likes            int64      `json:"likes"`
	MetaTitle        string     `json:"meta_title,omitempty"`
	MetaDescription  string     `json:"meta_description,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Regenerate asks the write path to rebuild content and translations.
	// It is consumed during the write and always stored as false.
	Regenerate bool `json:"regenerate"`

	// Populated when the post is loaded with its relations.
	Category       *Category `json:"category,omitempty"`
	CoverImage     *Media    `json:"cover_image,omitempty"`
	CoverThumbnail *Media    `json:"cover_thumbnail,omitempty"`
}

// HasCover reports whether a cover image is attached.
func (p *Post) HasCover() bool {
	return p.CoverImageID != nil && *p.CoverImageID > 0
}

// HasCategory reports whether the post belongs to a category.
func (p *Post) HasCategory() bool {
	return p.CategoryID != nil && *p.CategoryID > 0
}

// PostTranslation holds the localized copy of a post. There is at most one
// row per (post, locale).
type PostTranslation struct {
	ID                int64     `json:"id"`
	PostID            int64     `json:"post_id"`
	Locale            Locale    `json:"locale"`
	Slug              string    `json:"slug"`
	TranslatedTitle   string    `json:"translated_title"`
	TranslatedExcerpt string    `json:"translated_excerpt"`
	TranslatedContent string    `json:"translated_content"`
	MetaTitle         string    `json:"meta_title,omitempty"`
	MetaDescription   string    `json:"meta_description,omitempty"`
	CategorySlug      string    `json:"category_slug"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Post *Post `json:"post,omitempty"`
}

// EmbeddingText returns the text whose embedding represents the translation:
// title and content joined, with whitespace runs collapsed to single spaces.
func (t *PostTranslation) EmbeddingText() string {
	return CollapseWhitespace(t.TranslatedTitle + " " + t.TranslatedContent)
}

// EmbeddingRecord is the vector computed for one post translation.
type EmbeddingRecord struct {
	PostTranslationID int64     `json:"post_translation_id"`
	Locale            Locale    `json:"locale"`
	Embedding         []float32 `json:"-"`
	ContentHash       string    `json:"content_hash"`
	UpdatedAt         time.Time `json:"updated_at"`
}
