// Package hook runs named handler chains around document writes.
package hook

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Lifecycle hook names. Handlers for before_* hooks may modify the document;
// after_change handlers observe the committed document.
const (
	PostBeforeValidate = "posts.before_validate"
	PostBeforeChange   = "posts.before_change"
	PostAfterChange    = "posts.after_change"

	CategoryBeforeValidate = "categories.before_validate"
	CategoryBeforeChange   = "categories.before_change"
	CategoryAfterChange    = "categories.after_change"
)

// Func is a hook handler. It receives the document and returns the document
// to pass to the next handler. If it returns an error, subsequent handlers
// are not called.
type Func func(ctx context.Context, data any) (any, error)

// Handler wraps a Func with metadata.
type Handler struct {
	Name     string // Name of the handler for debugging
	Owner    string // Component that registered the handler
	Priority int    // Lower priority runs first (default: 0)
	Fn       Func
}

// Registry manages hook registration and execution.
type Registry struct {
	hooks  map[string][]Handler
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewRegistry creates a new hook registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		hooks:  make(map[string][]Handler),
		logger: logger,
	}
}

// Register adds a handler for the given hook name. Handlers with equal
// priority run in registration order.
func (r *Registry) Register(hookName string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Call iterates the previous slice without the lock, so sort a copy.
	existing := r.hooks[hookName]
	handlers := make([]Handler, 0, len(existing)+1)
	handlers = append(handlers, existing...)
	handlers = append(handlers, handler)
	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].Priority < handlers[j].Priority
	})
	r.hooks[hookName] = handlers

	r.logger.Debug("hook registered",
		"hook", hookName,
		"handler", handler.Name,
		"owner", handler.Owner,
		"priority", handler.Priority,
	)
}

// RegisterFunc is a convenience method to register a simple hook function.
func (r *Registry) RegisterFunc(hookName, handlerName, owner string, fn Func) {
	r.Register(hookName, Handler{
		Name:  handlerName,
		Owner: owner,
		Fn:    fn,
	})
}

// Call executes all handlers for the given hook name in priority order,
// passing the data through each of them. If any handler returns an error,
// execution stops and the error is returned.
func (r *Registry) Call(ctx context.Context, hookName string, data any) (any, error) {
	r.mu.RLock()
	handlers := r.hooks[hookName]
	r.mu.RUnlock()

	if len(handlers) == 0 {
		return data, nil
	}

	r.logger.Debug("calling hooks", "hook", hookName, "handlers", len(handlers))

	current := data
	for _, handler := range handlers {
		result, err := handler.Fn(ctx, current)
		if err != nil {
			r.logger.Error("hook handler error",
				"hook", hookName,
				"handler", handler.Name,
				"owner", handler.Owner,
				"error", err,
			)
			return nil, fmt.Errorf("hook %s handler %s: %w", hookName, handler.Name, err)
		}
		current = result
	}

	return current, nil
}

// CallNoResult executes hooks without expecting a modified result.
func (r *Registry) CallNoResult(ctx context.Context, hookName string, data any) error {
	_, err := r.Call(ctx, hookName, data)
	return err
}

// HasHandlers returns true if there are handlers registered for the hook.
func (r *Registry) HasHandlers(hookName string) bool {
	return r.HandlerCount(hookName) > 0
}

// HandlerCount returns the number of handlers registered for a hook.
func (r *Registry) HandlerCount(hookName string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.hooks[hookName])
}

// ListHooks returns all hook names with at least one handler, sorted.
func (r *Registry) ListHooks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.hooks))
	for name, handlers := range r.hooks {
		if len(handlers) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Unregister removes all handlers for a hook registered by owner.
func (r *Registry) Unregister(hookName, owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]Handler, 0, len(r.hooks[hookName]))
	for _, handler := range r.hooks[hookName] {
		if handler.Owner != owner {
			kept = append(kept, handler)
		}
	}
	r.hooks[hookName] = kept

	r.logger.Debug("hooks unregistered",
		"hook", hookName,
		"owner", owner,
		"remaining", len(kept),
	)
}
