// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "simple filename", input: "cover.jpg", want: "cover.jpg"},
		{name: "spaces replaced", input: "my cover.jpg", want: "my_cover.jpg"},
		{name: "path traversal attempt", input: "../../../etc/passwd", want: "passwd"},
		{name: "nested path", input: "a/b/thumb.jpg", want: "thumb.jpg"},
		{name: "empty", input: "", wantErr: true},
		{name: "dot dot", input: "..", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("SanitizeFilename(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizeFilename(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	got, err := SafeJoinPath(base, "originals", "abc", "cover.jpg")
	if err != nil {
		t.Fatalf("SafeJoinPath() error: %v", err)
	}
	if !strings.HasSuffix(got, filepath.Join("originals", "abc", "cover.jpg")) {
		t.Errorf("SafeJoinPath() = %q", got)
	}

	if _, err := SafeJoinPath(base, "..", "outside"); err == nil {
		t.Error("SafeJoinPath() with traversal should fail")
	}
}
