// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package embedding turns text into fixed-length, L2-normalized vectors
// using a feature-extraction endpoint.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
)

var (
	// ErrDimension is returned when the endpoint answers with a vector of
	// unexpected length.
	ErrDimension = errors.New("unexpected embedding dimension")
	// ErrEmptyText is returned for blank input.
	ErrEmptyText = errors.New("cannot embed empty text")
	// ErrNotConfigured is returned by Default before Configure was called.
	ErrNotConfigured = errors.New("embedding generator not configured")
)

// Extractor returns the pooled feature vector for a text.
type Extractor interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator produces embeddings. The extractor is created on first use and
// reused for the life of the process.
type Generator struct {
	dimensions int
	factory    func() (Extractor, error)

	once      sync.Once
	extractor Extractor
	initErr   error
}

// NewGenerator creates a Generator whose extractor is built by factory on
// the first call to Embed.
func NewGenerator(dimensions int, factory func() (Extractor, error)) *Generator {
	return &Generator{dimensions: dimensions, factory: factory}
}

// Dimensions returns the vector length produced by the generator.
func (g *Generator) Dimensions() int {
	return g.dimensions
}

func (g *Generator) init() (Extractor, error) {
	g.once.Do(func() {
		g.extractor, g.initErr = g.factory()
		if g.initErr == nil && g.extractor == nil {
			g.initErr = ErrNotConfigured
		}
	})
	return g.extractor, g.initErr
}

// Embed returns the normalized embedding of text.
func (g *Generator) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	ex, err := g.init()
	if err != nil {
		return nil, fmt.Errorf("initializing extractor: %w", err)
	}

	raw, err := ex.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extracting features: %w", err)
	}
	if len(raw) != g.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(raw), g.dimensions)
	}
	return Normalize(raw), nil
}

// Normalize scales v to unit L2 norm. A zero vector is returned unchanged.
func Normalize(v []float64) []float32 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	out := make([]float32, len(v))
	norm := math.Sqrt(sum)
	if norm == 0 {
		for i, x := range v {
			out[i] = float32(x)
		}
		return out
	}
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}

var (
	defaultMu  sync.RWMutex
	defaultGen *Generator
)

// Configure installs the process-wide generator returned by Default.
func Configure(g *Generator) {
	defaultMu.Lock()
	defaultGen = g
	defaultMu.Unlock()
}

// Default returns the process-wide generator.
func Default() (*Generator, error) {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultGen == nil {
		return nil, ErrNotConfigured
	}
	return defaultGen, nil
}
