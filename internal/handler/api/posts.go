// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
)

// PostRequest is the body of POST and PATCH /api/v1/posts. Absent fields
// are left unchanged on PATCH.
type PostRequest struct {
	Title           *string    `json:"title"`
	Slug            *string    `json:"slug"`
	Excerpt         *string    `json:"excerpt"`
	Content         *string    `json:"content"`
	CategoryID      *int64     `json:"category_id"`
	CoverImageID    *int64     `json:"cover_image_id"`
	AuthorID        *int64     `json:"author_id"`
	Published       *bool      `json:"published"`
	PublishedDate   *time.Time `json:"published_date"`
	MetaTitle       *string    `json:"meta_title"`
	MetaDescription *string    `json:"meta_description"`
	Regenerate      bool       `json:"regenerate"`
}

func (req *PostRequest) apply(p *model.Post) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Slug != nil {
		p.Slug = *req.Slug
	}
	if req.Excerpt != nil {
		p.Excerpt = *req.Excerpt
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	if req.CategoryID != nil {
		p.CategoryID = req.CategoryID
	}
	if req.CoverImageID != nil {
		p.CoverImageID = req.CoverImageID
	}
	if req.AuthorID != nil {
		p.AuthorID = req.AuthorID
	}
	if req.Published != nil {
		p.Published = *req.Published
	}
	if req.PublishedDate != nil {
		p.PublishedDate = req.PublishedDate
	}
	if req.MetaTitle != nil {
		p.MetaTitle = *req.MetaTitle
	}
	if req.MetaDescription != nil {
		p.MetaDescription = *req.MetaDescription
	}
	p.Regenerate = req.Regenerate
}

// ListPosts handles GET /api/v1/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	posts, total, err := h.store.ListPosts(r.Context(), pg.PerPage, pg.Offset())
	if err != nil {
		h.writeServiceError(w, err, "list posts")
		return
	}
	WriteSuccess(w, posts, pg.Meta(total))
}

// GetPost handles GET /api/v1/posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := requireEntityByID(w, r, "post", h.store.GetPost)
	if !ok {
		return
	}
	WriteSuccess(w, post, nil)
}

// CreatePost handles POST /api/v1/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post := &model.Post{}
	req.apply(post)

	created, err := h.posts.Create(r.Context(), post)
	if err != nil {
		h.writeServiceError(w, err, "create post")
		return
	}
	WriteCreated(w, created)
}

// UpdatePost handles PATCH /api/v1/posts/{id}. The body is applied onto the
// stored post; "regenerate": true rebuilds content and translations.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	post, ok := requireEntityByID(w, r, "post", h.store.GetPost)
	if !ok {
		return
	}

	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.apply(post)

	updated, err := h.posts.Update(r.Context(), post)
	if err != nil {
		h.writeServiceError(w, err, "update post")
		return
	}
	WriteSuccess(w, updated, nil)
}

// EmbedPost handles POST /api/v1/posts/{id}/embeddings. It runs
// synchronously and reports the per-translation outcome counts.
func (h *Handler) EmbedPost(w http.ResponseWriter, r *http.Request) {
	post, ok := requireEntityByID(w, r, "post", h.store.GetPost)
	if !ok {
		return
	}

	summary, err := h.embedder.EmbedPost(r.Context(), post.ID)
	if err != nil {
		h.writeServiceError(w, err, "embed post")
		return
	}
	WriteSuccess(w, summary, nil)
}

// ListPostTranslations handles GET /api/v1/posts/{id}/translations.
func (h *Handler) ListPostTranslations(w http.ResponseWriter, r *http.Request) {
	post, ok := requireEntityByID(w, r, "post", h.store.GetPost)
	if !ok {
		return
	}

	translations, err := h.store.ListPostTranslations(r.Context(), post.ID)
	if err != nil {
		h.writeServiceError(w, err, "list translations")
		return
	}
	WriteSuccess(w, translations, &Meta{Total: int64(len(translations))})
}

// TranslationResponse is a post translation, optionally with its content
// rendered to sanitized HTML.
type TranslationResponse struct {
	*model.PostTranslation
	HTML string `json:"html,omitempty"`
}

// GetPostTranslation handles GET /api/v1/post-translations/{id}. With
// ?format=html the Markdown content is also returned rendered.
func (h *Handler) GetPostTranslation(w http.ResponseWriter, r *http.Request) {
	t, ok := requireEntityByID(w, r, "translation", h.store.GetPostTranslation)
	if !ok {
		return
	}

	resp := TranslationResponse{PostTranslation: t}
	switch r.URL.Query().Get("format") {
	case "", "markdown":
	case "html":
		html, err := h.renderer.HTML(t.TranslatedContent)
		if err != nil {
			h.writeServiceError(w, err, "render translation")
			return
		}
		resp.HTML = html
	default:
		WriteBadRequest(w, "Invalid format", map[string]string{"format": "Must be markdown or html"})
		return
	}
	WriteSuccess(w, resp, nil)
}
