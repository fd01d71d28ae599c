// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/pipeline"
)

// BackfillBatch is the number of translations embedded per sweep.
const BackfillBatch = 100

// Backfiller embeds translations that have no vector yet.
type Backfiller interface {
	Backfill(ctx context.Context, limit int) (pipeline.EmbeddingSummary, error)
}

// Scheduler handles the embedding backfill sweep.
type Scheduler struct {
	cron     *cron.Cron
	backfill Backfiller
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a scheduler that runs the backfill on schedule (standard cron
// syntax or descriptors such as "@every 15m"). An empty schedule disables it.
// A sweep still running when the next one is due is skipped.
func New(backfill Backfiller, schedule string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		backfill: backfill,
		schedule: schedule,
		timeout:  10 * time.Minute,
		logger:   logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("embedding backfill disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.runBackfill); err != nil {
		return fmt.Errorf("invalid backfill schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "backfill", s.schedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunOnce runs one backfill sweep synchronously.
func (s *Scheduler) RunOnce(ctx context.Context) (pipeline.EmbeddingSummary, error) {
	summary, err := s.backfill.Backfill(ctx, BackfillBatch)
	if err != nil {
		return summary, fmt.Errorf("embedding backfill: %w", err)
	}
	return summary, nil
}

func (s *Scheduler) runBackfill() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	summary, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("embedding backfill failed", "category", model.EventCategoryEmbedding, "error", err)
		return
	}
	if summary.Failed > 0 {
		s.logger.Warn("embedding backfill had failures", "category", model.EventCategoryEmbedding,
			"succeeded", summary.Succeeded, "failed", summary.Failed)
	}
}
