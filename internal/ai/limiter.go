// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter bounds upstream AI calls for the whole process: a token bucket
// caps the call rate and a weighted semaphore caps calls in flight. One
// Limiter is shared by every Client.
type Limiter struct {
	rate     *rate.Limiter
	inflight *semaphore.Weighted
}

// NewLimiter creates a limiter allowing perSecond calls with the given burst
// and at most maxConcurrent calls in flight.
func NewLimiter(perSecond float64, burst int, maxConcurrent int64) *Limiter {
	return &Limiter{
		rate:     rate.NewLimiter(rate.Limit(perSecond), burst),
		inflight: semaphore.NewWeighted(maxConcurrent),
	}
}

// Unlimited returns a limiter that never waits.
func Unlimited() *Limiter {
	return &Limiter{
		rate:     rate.NewLimiter(rate.Inf, 0),
		inflight: semaphore.NewWeighted(1 << 30),
	}
}

// Acquire blocks until a call may start. The returned release must be
// called when the call finishes.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.inflight.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for upstream slot: %w", err)
	}
	if err := l.rate.Wait(ctx); err != nil {
		l.inflight.Release(1)
		return nil, fmt.Errorf("waiting for upstream rate limit: %w", err)
	}
	return func() { l.inflight.Release(1) }, nil
}
