// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/ocms-blog/internal/model"
)

// CategoryRequest is the body of POST and PATCH /api/v1/categories.
type CategoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

func (req *CategoryRequest) apply(c *model.Category) {
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Slug != nil {
		c.Slug = *req.Slug
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
}

// ListCategories handles GET /api/v1/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "list categories")
		return
	}
	WriteSuccess(w, categories, &Meta{Total: int64(len(categories))})
}

// GetCategory handles GET /api/v1/categories/{id}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, ok := requireEntityByID(w, r, "category", h.store.GetCategory)
	if !ok {
		return
	}
	WriteSuccess(w, c, nil)
}

// CreateCategory handles POST /api/v1/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c := &model.Category{}
	req.apply(c)

	created, err := h.categories.Create(r.Context(), c)
	if err != nil {
		h.writeServiceError(w, err, "create category")
		return
	}
	WriteCreated(w, created)
}

// UpdateCategory handles PATCH /api/v1/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	c, ok := requireEntityByID(w, r, "category", h.store.GetCategory)
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.apply(c)

	updated, err := h.categories.Update(r.Context(), c)
	if err != nil {
		h.writeServiceError(w, err, "update category")
		return
	}
	WriteSuccess(w, updated, nil)
}

// ListCategoryTranslations handles GET /api/v1/categories/{id}/translations.
func (h *Handler) ListCategoryTranslations(w http.ResponseWriter, r *http.Request) {
	c, ok := requireEntityByID(w, r, "category", h.store.GetCategory)
	if !ok {
		return
	}

	translations, err := h.store.ListCategoryTranslations(r.Context(), c.ID)
	if err != nil {
		h.writeServiceError(w, err, "list category translations")
		return
	}
	WriteSuccess(w, translations, &Meta{Total: int64(len(translations))})
}
