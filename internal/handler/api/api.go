// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON REST API and the public search endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/ocms-blog/internal/ai"
	"github.com/olegiv/ocms-blog/internal/imaging"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/pipeline"
	"github.com/olegiv/ocms-blog/internal/render"
	"github.com/olegiv/ocms-blog/internal/service"
	"github.com/olegiv/ocms-blog/internal/store"
	"github.com/olegiv/ocms-blog/internal/version"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// Store is the read side of the database used by the handlers. Writes go
// through the services so that hooks run.
type Store interface {
	Ping(ctx context.Context) error
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]model.Post, int64, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListCategoryTranslations(ctx context.Context, categoryID int64) ([]model.CategoryTranslation, error)
	GetPostTranslation(ctx context.Context, id int64) (*model.PostTranslation, error)
	ListPostTranslations(ctx context.Context, postID int64) ([]model.PostTranslation, error)
	ListEvents(ctx context.Context, category string, limit, offset int) ([]model.Event, error)
}

// Searcher answers semantic search queries.
type Searcher interface {
	Search(ctx context.Context, query string, locale model.Locale) ([]pipeline.SearchHit, error)
}

// PostEmbedder recomputes the vectors of one post.
type PostEmbedder interface {
	EmbedPost(ctx context.Context, postID int64) (pipeline.EmbeddingSummary, error)
}

// Deps are the collaborators of the API handlers.
type Deps struct {
	Store       Store
	Posts       *service.PostService
	Categories  *service.CategoryService
	Media       *service.MediaService
	Subscribers *service.SubscriberService
	Searcher    Searcher
	Embedder    PostEmbedder
	Renderer    *render.Renderer
	Version     version.Info
	Logger      *slog.Logger
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	store       Store
	posts       *service.PostService
	categories  *service.CategoryService
	media       *service.MediaService
	subscribers *service.SubscriberService
	searcher    Searcher
	embedder    PostEmbedder
	renderer    *render.Renderer
	version     version.Info
	logger      *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	if d.Renderer == nil {
		d.Renderer = render.New()
	}
	return &Handler{
		store:       d.Store,
		posts:       d.Posts,
		categories:  d.Categories,
		media:       d.Media,
		subscribers: d.Subscribers,
		searcher:    d.Searcher,
		embedder:    d.Embedder,
		renderer:    d.Renderer,
		version:     d.Version,
		logger:      d.Logger,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination and other metadata.
type Meta struct {
	Total   int64 `json:"total,omitempty"`
	Page    int   `json:"page,omitempty"`
	PerPage int   `json:"per_page,omitempty"`
	Pages   int   `json:"pages,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// writeServiceError maps an error returned by a service or the store to a
// response. Unexpected errors are logged and reported as 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, action string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteValidationError(w, ve.Fields)
	case errors.Is(err, store.ErrNotFound):
		WriteNotFound(w, "Not found")
	case errors.Is(err, service.ErrFileTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), nil)
	case errors.Is(err, service.ErrFileType):
		WriteError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "Only JPEG, PNG, GIF and WebP images are accepted", nil)
	case errors.Is(err, imaging.ErrGeneration), errors.Is(err, ai.ErrUpstream):
		h.logger.Warn(action+" failed upstream", "error", err)
		WriteError(w, http.StatusBadGateway, "upstream_error", "Upstream service failed", nil)
	default:
		h.logger.Error(action+" failed", "error", err)
		WriteInternalError(w, "Failed to "+action)
	}
}

// decodeJSON reads a bounded JSON body into dst. On failure a 400 has
// already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return false
	}
	return true
}

// EntityFetcher is a function that fetches an entity by ID.
type EntityFetcher[T any] func(ctx context.Context, id int64) (T, error)

// requireEntityByID parses the {id} URL parameter and fetches the entity.
// Returns the entity and true if successful, or zero value and false if
// the error response has been written.
func requireEntityByID[T any](w http.ResponseWriter, r *http.Request, entityName string, fetch EntityFetcher[T]) (T, bool) {
	var zero T

	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid "+entityName+" ID", nil)
		return zero, false
	}

	entity, err := fetch(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteNotFound(w, capitalizeFirst(entityName)+" not found")
		} else {
			WriteInternalError(w, "Failed to retrieve "+entityName)
		}
		return zero, false
	}

	return entity, true
}

// capitalizeFirst returns s with the first letter capitalized.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
