// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-blog/internal/testutil"
)

func TestRunner_SerializesAndCoalesces(t *testing.T) {
	r := NewRunner(testutil.TestLoggerSilent())

	release := make(chan struct{})
	started := make(chan struct{}, 10)
	var (
		mu      sync.Mutex
		intents []bool
		running atomic.Int32
		overlap atomic.Bool
	)
	run := func(_ context.Context, regenerate bool) {
		if running.Add(1) > 1 {
			overlap.Store(true)
		}
		defer running.Add(-1)
		mu.Lock()
		intents = append(intents, regenerate)
		mu.Unlock()
		started <- struct{}{}
		<-release
	}

	require.True(t, r.Schedule("post:1", false, run))
	<-started

	// Three writes while the first run is in flight collapse into one.
	r.Schedule("post:1", false, run)
	r.Schedule("post:1", true, run)
	r.Schedule("post:1", false, run)

	close(release)
	r.Wait()

	assert.False(t, overlap.Load(), "runs for one key overlapped")
	assert.Equal(t, []bool{false, true}, intents)
	assert.Zero(t, r.Active())
}

func TestRunner_DistinctKeysRunConcurrently(t *testing.T) {
	r := NewRunner(testutil.TestLoggerSilent())

	var wg sync.WaitGroup
	wg.Add(2)
	both := make(chan struct{})
	run := func(context.Context, bool) {
		wg.Done()
		<-both
	}

	r.Schedule("post:1", false, run)
	r.Schedule("post:2", false, run)

	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("runs for different keys did not start concurrently")
	}
	close(both)
	r.Wait()
}

func TestRunner_PanicDoesNotKillRunner(t *testing.T) {
	r := NewRunner(testutil.TestLoggerSilent())
	var ran atomic.Bool

	r.Schedule("post:1", false, func(context.Context, bool) { panic("boom") })
	r.Wait()
	r.Schedule("post:1", false, func(context.Context, bool) { ran.Store(true) })
	r.Wait()

	assert.True(t, ran.Load())
}

func TestRunner_Stop(t *testing.T) {
	r := NewRunner(testutil.TestLoggerSilent())
	var finished atomic.Bool

	r.Schedule("post:1", false, func(context.Context, bool) {
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})
	require.NoError(t, r.Stop(context.Background()))
	assert.True(t, finished.Load(), "Stop must wait for in-flight runs")

	assert.False(t, r.Schedule("post:2", false, func(context.Context, bool) {}))
}

func TestRunner_StopDeadlineCancelsRuns(t *testing.T) {
	r := NewRunner(testutil.TestLoggerSilent())
	started := make(chan struct{})

	r.Schedule("post:1", false, func(ctx context.Context, _ bool) {
		close(started)
		<-ctx.Done()
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Stop(ctx), context.DeadlineExceeded)
}
