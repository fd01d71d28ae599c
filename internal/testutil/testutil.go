// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the ocms-blog project.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a logger that discards everything.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// DatabaseURL returns OCMS_TEST_DATABASE_URL or skips the test when it is
// not set.
func DatabaseURL(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("OCMS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("OCMS_TEST_DATABASE_URL not set, skipping Postgres test")
	}
	return dsn
}
