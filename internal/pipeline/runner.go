package pipeline

import (
	"context"
	"log/slog"
	"sync"
)

// RunFunc performs one pipeline run. regenerate is the OR of every intent
// coalesced into the run.
type RunFunc func(ctx context.Context, regenerate bool)

// activeRun tracks a key with a run in flight.
type activeRun struct {
	// follow-up requested while the current run was executing
	pending    bool
	regenerate bool
	run        RunFunc
}

// Runner executes pipeline runs in the background. Runs for one key never
// overlap: a request arriving while a run for the same key is in flight is
// coalesced into a single follow-up run that starts when the current one
// finishes. Runs for different keys proceed concurrently.
type Runner struct {
	logger  *slog.Logger
	active  map[string]*activeRun
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

// NewRunner creates a runner. Runs use a context detached from the request
// that scheduled them; it is cancelled only when Stop gives up waiting.
func NewRunner(logger *slog.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		logger: logger,
		active: make(map[string]*activeRun),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule queues a run for key. It returns false once the runner is
// stopped.
func (r *Runner) Schedule(key string, regenerate bool, run RunFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		r.logger.Warn("pipeline run dropped, runner stopped", "key", key)
		return false
	}

	if ar, ok := r.active[key]; ok {
		ar.pending = true
		ar.regenerate = ar.regenerate || regenerate
		ar.run = run
		r.logger.Debug("pipeline run coalesced", "key", key, "regenerate", ar.regenerate)
		return true
	}

	r.active[key] = &activeRun{}
	r.wg.Add(1)
	go r.loop(key, regenerate, run)
	return true
}

func (r *Runner) loop(key string, regenerate bool, run RunFunc) {
	defer r.wg.Done()

	for {
		r.execute(key, regenerate, run)

		r.mu.Lock()
		ar := r.active[key]
		if !ar.pending {
			delete(r.active, key)
			r.mu.Unlock()
			return
		}
		regenerate, run = ar.regenerate, ar.run
		ar.pending, ar.regenerate, ar.run = false, false, nil
		r.mu.Unlock()
	}
}

func (r *Runner) execute(key string, regenerate bool, run RunFunc) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("pipeline run panicked", "key", key, "panic", rec)
		}
	}()
	run(r.ctx, regenerate)
}

// Active returns the number of keys with a run in flight.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Wait blocks until no run is in flight.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Stop refuses new runs and waits for in-flight runs and their follow-ups to
// finish. If ctx expires first, the runs' context is cancelled and Stop
// returns ctx.Err() after they return.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
