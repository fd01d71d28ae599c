// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import "context"

// WriteState is scoped to one document write. The write path creates it
// before running hooks; hooks record what the caller asked for so that the
// after-change hook can act on it once the document no longer carries it.
type WriteState struct {
	// Regenerate is the caller's regenerate intent, captured before the
	// flag is cleared on the document.
	Regenerate bool
}

type writeStateKey struct{}

// WithWriteState returns a context carrying a fresh WriteState.
func WithWriteState(ctx context.Context) (context.Context, *WriteState) {
	st := &WriteState{}
	return context.WithValue(ctx, writeStateKey{}, st), st
}

// WriteStateFrom returns the WriteState carried by ctx, or nil.
func WriteStateFrom(ctx context.Context) *WriteState {
	st, _ := ctx.Value(writeStateKey{}).(*WriteState)
	return st
}
