// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"io"
	"net/http"

	"github.com/olegiv/ocms-blog/internal/service"
)

// UploadMedia handles POST /api/v1/media (multipart/form-data with a "file"
// part and an optional "alt" field).
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadSize+maxBodySize)
	if err := r.ParseMultipartForm(service.MaxUploadSize); err != nil {
		WriteBadRequest(w, "Invalid multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteValidationError(w, map[string]string{"file": "File is required"})
		return
	}
	defer func() { _ = file.Close() }()

	// One byte past the limit is enough for the service to reject it.
	data, err := io.ReadAll(io.LimitReader(file, service.MaxUploadSize+1))
	if err != nil {
		WriteBadRequest(w, "Failed to read file", nil)
		return
	}

	m, err := h.media.Upload(r.Context(), service.File{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Alt:      r.FormValue("alt"),
		Data:     data,
	})
	if err != nil {
		h.writeServiceError(w, err, "upload media")
		return
	}
	WriteCreated(w, m)
}
