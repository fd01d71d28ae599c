// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"time"
)

// ListEvents handles GET /api/v1/events?category=&page=&per_page=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	events, err := h.store.ListEvents(r.Context(), r.URL.Query().Get("category"), pg.PerPage, pg.Offset())
	if err != nil {
		h.writeServiceError(w, err, "list events")
		return
	}
	WriteSuccess(w, events, pg.Meta(-1))
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version"`
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", "error", err)
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "down", Version: h.version.Version})
		return
	}
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "up", Version: h.version.Version})
}
