// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/pipeline"
)

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Docs      []pipeline.SearchHit `json:"docs"`
	TotalDocs int                  `json:"totalDocs"`
}

// missingQueryBody is returned verbatim when q is absent. Clients match on it.
var missingQueryBody = map[string]string{"error": "Missing query parameter"}

// Search handles GET /search?q=&locale=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		WriteJSON(w, http.StatusBadRequest, missingQueryBody)
		return
	}

	locale := model.DefaultLocale
	if raw := r.URL.Query().Get("locale"); raw != "" {
		l, err := model.ParseLocale(raw)
		if err != nil {
			WriteBadRequest(w, "Invalid locale", map[string]string{"locale": "Must be one of es, en, fr, ja, zh"})
			return
		}
		locale = l
	}

	hits, err := h.searcher.Search(r.Context(), q, locale)
	if err != nil {
		h.logger.Error("search failed", "category", model.EventCategorySearch,
			"locale", locale, "error", err)
		WriteInternalError(w, "Search failed")
		return
	}

	WriteJSON(w, http.StatusOK, SearchResponse{Docs: hits, TotalDocs: len(hits)})
}
