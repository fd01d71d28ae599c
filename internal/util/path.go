// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SanitizeFilename keeps only the base name of an uploaded file and replaces
// characters that are awkward in URLs. Names that resolve to nothing usable
// are rejected.
func SanitizeFilename(filename string) (string, error) {
	safe := filepath.Base(filepath.Clean("/" + filename))
	if safe == "." || safe == ".." || safe == "" || safe == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename: %q", filename)
	}
	safe = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '?', '#', '%', '&', '\\':
			return '_'
		}
		return r
	}, safe)
	return safe, nil
}

// SafeJoinPath joins components under basePath and fails if the result
// escapes it.
func SafeJoinPath(basePath string, components ...string) (string, error) {
	absBase, err := filepath.Abs(filepath.Clean(basePath))
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	full := filepath.Join(append([]string{absBase}, components...)...)
	if full != absBase && !strings.HasPrefix(full, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: path escapes base directory")
	}
	return full, nil
}
