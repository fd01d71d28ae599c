// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/olegiv/ocms-blog/internal/pipeline"
	"github.com/olegiv/ocms-blog/internal/testutil"
)

type fakeBackfiller struct {
	mu     sync.Mutex
	limits []int
	err    error
}

func (f *fakeBackfiller) Backfill(_ context.Context, limit int) (pipeline.EmbeddingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	return pipeline.EmbeddingSummary{Succeeded: 2}, f.err
}

func TestNew(t *testing.T) {
	logger := testutil.TestLoggerSilent()
	s := New(&fakeBackfiller{}, "@every 15m", logger)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.logger != logger {
		t.Error("New() scheduler has wrong logger")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(&fakeBackfiller{}, "@every 15m", testutil.TestLoggerSilent())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
	s.Stop()
}

func TestScheduler_Disabled(t *testing.T) {
	s := New(&fakeBackfiller{}, "", testutil.TestLoggerSilent())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if n := len(s.cron.Entries()); n != 0 {
		t.Errorf("entries = %d, want 0", n)
	}
	s.Stop()
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New(&fakeBackfiller{}, "every now and then", testutil.TestLoggerSilent())
	if err := s.Start(); err == nil {
		t.Error("Start() with an invalid schedule should fail")
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	b := &fakeBackfiller{}
	s := New(b, "@every 15m", testutil.TestLoggerSilent())

	summary, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if summary.Succeeded != 2 {
		t.Errorf("Succeeded = %d, want 2", summary.Succeeded)
	}
	if len(b.limits) != 1 || b.limits[0] != BackfillBatch {
		t.Errorf("limits = %v, want [%d]", b.limits, BackfillBatch)
	}

	b.err = errors.New("db down")
	if _, err := s.RunOnce(context.Background()); !errors.Is(err, b.err) {
		t.Errorf("RunOnce() error = %v, want wrapped db error", err)
	}
	s.runBackfill() // logs, does not panic
}

func TestScheduler_BackfillWithMemStore(t *testing.T) {
	st := testutil.NewMemStore()
	emb := pipeline.NewEmbedder(st, constEmbedder{}, false, nil, testutil.TestLoggerSilent())
	s := New(emb, "@every 15m", testutil.TestLoggerSilent())

	summary, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if summary != (pipeline.EmbeddingSummary{}) {
		t.Errorf("summary on empty store = %+v, want zero", summary)
	}
}

type constEmbedder struct{}

func (constEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{1}, nil }
