// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Pagination defaults for list endpoints.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

var errInvalidID = errors.New("invalid id")

// parseIDParam parses the {id} URL parameter as a positive int64.
func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// parseIntParam parses an integer query parameter from the request.
// Returns defaultVal if the parameter is missing, empty, or invalid.
// If minVal > 0, values below minVal return defaultVal.
// If maxVal > 0, values above maxVal return defaultVal.
func parseIntParam(r *http.Request, param string, defaultVal, minVal, maxVal int) int {
	str := r.URL.Query().Get(param)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if minVal > 0 && val < minVal {
		return defaultVal
	}
	if maxVal > 0 && val > maxVal {
		return defaultVal
	}
	return val
}

// page is a parsed page/per_page pair.
type page struct {
	Number  int
	PerPage int
}

func parsePage(r *http.Request) page {
	return page{
		Number:  parseIntParam(r, "page", 1, 1, 0),
		PerPage: parseIntParam(r, "per_page", DefaultPerPage, 1, MaxPerPage),
	}
}

func (p page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Meta builds response metadata. A negative total means the total is unknown.
func (p page) Meta(total int64) *Meta {
	m := &Meta{Page: p.Number, PerPage: p.PerPage}
	if total >= 0 {
		m.Total = total
		m.Pages = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	return m
}
