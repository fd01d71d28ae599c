// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
)

// SubscribeRequest is the body of POST /api/v1/newsletter.
type SubscribeRequest struct {
	Email  string `json:"email"`
	Locale string `json:"locale"`
}

// Subscribe handles POST /api/v1/newsletter. Subscribing an address twice
// is not an error; the second call answers 200 instead of 201.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, created, err := h.subscribers.Subscribe(r.Context(), req.Email, req.Locale)
	if err != nil {
		h.writeServiceError(w, err, "subscribe")
		return
	}
	if created {
		WriteCreated(w, sub)
		return
	}
	WriteSuccess(w, sub, nil)
}
