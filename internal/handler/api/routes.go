// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/ocms-blog/internal/metrics"
	"github.com/olegiv/ocms-blog/internal/middleware"
)

// RouterConfig configures the HTTP surface around the handlers.
type RouterConfig struct {
	IsDevelopment  bool
	CORSOrigins    []string
	RateLimit      int           // requests per minute per client; 0 disables
	RequestTimeout time.Duration // 0 disables
	UploadsDir     string        // served under /uploads/ when set
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler // served at /metrics when set
	Logger         *slog.Logger
}

// NewRouter builds the chi router for the public search endpoint and the
// REST API.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger, cfg.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment)))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSOrigins))
	}

	r.Get("/healthz", h.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.UploadsDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
		r.Handle("/uploads/*", fs)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(middleware.NewRateLimiter(cfg.RateLimit).Middleware())
		}

		r.With(timeout(cfg.RequestTimeout)).Get("/search", h.Search)

		r.Route("/api/v1", func(r chi.Router) {
			// Re-embedding calls the feature extraction service once per
			// locale and is kept out of the request timeout.
			r.Post("/posts/{id}/embeddings", h.EmbedPost)

			r.Group(func(r chi.Router) {
				r.Use(timeout(cfg.RequestTimeout))

				r.Get("/posts", h.ListPosts)
				r.Post("/posts", h.CreatePost)
				r.Get("/posts/{id}", h.GetPost)
				r.Patch("/posts/{id}", h.UpdatePost)
				r.Get("/posts/{id}/translations", h.ListPostTranslations)
				r.Get("/post-translations/{id}", h.GetPostTranslation)

				r.Get("/categories", h.ListCategories)
				r.Post("/categories", h.CreateCategory)
				r.Get("/categories/{id}", h.GetCategory)
				r.Patch("/categories/{id}", h.UpdateCategory)
				r.Get("/categories/{id}/translations", h.ListCategoryTranslations)

				r.Post("/media", h.UploadMedia)
				r.Post("/newsletter", h.Subscribe)
				r.Get("/events", h.ListEvents)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	return r
}

func timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Timeout(d)
}
