// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the write path for posts and categories,
// the media sink and newsletter subscriptions.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/olegiv/ocms-blog/internal/hook"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/pipeline"
	"github.com/olegiv/ocms-blog/internal/store"
	"github.com/olegiv/ocms-blog/internal/util"
)

// ValidationError reports field-level problems with a document.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// PostStore is the persistence the post write path needs.
type PostStore interface {
	CreatePost(ctx context.Context, p *model.Post) error
	UpdatePost(ctx context.Context, p *model.Post) error
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	PostSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
}

// PostService creates and updates posts, running the lifecycle hooks
// around every write.
type PostService struct {
	store  PostStore
	hooks  *hook.Registry
	logger *slog.Logger
}

// NewPostService creates a PostService.
func NewPostService(s PostStore, hooks *hook.Registry, logger *slog.Logger) *PostService {
	return &PostService{store: s, hooks: hooks, logger: logger}
}

// Create inserts a new post.
func (s *PostService) Create(ctx context.Context, p *model.Post) (*model.Post, error) {
	p.ID = 0
	return s.save(ctx, p)
}

// Update writes changes to an existing post. p.ID must be set.
func (s *PostService) Update(ctx context.Context, p *model.Post) (*model.Post, error) {
	if p.ID == 0 {
		return nil, errors.New("update requires a post id")
	}
	if _, err := s.store.GetPost(ctx, p.ID); err != nil {
		return nil, err
	}
	return s.save(ctx, p)
}

func (s *PostService) save(ctx context.Context, p *model.Post) (*model.Post, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, invalid("title", "Title is required")
	}

	ctx, _ = pipeline.WithWriteState(ctx)

	out, err := s.hooks.Call(ctx, hook.PostBeforeValidate, p)
	if err != nil {
		return nil, fmt.Errorf("preparing post: %w", err)
	}
	p = out.(*model.Post)

	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}

	out, err = s.hooks.Call(ctx, hook.PostBeforeChange, p)
	if err != nil {
		return nil, fmt.Errorf("preparing post: %w", err)
	}
	p = out.(*model.Post)

	if p.ID == 0 {
		err = s.store.CreatePost(ctx, p)
	} else {
		err = s.store.UpdatePost(ctx, p)
	}
	if err != nil {
		return nil, fmt.Errorf("saving post: %w", err)
	}

	if err := s.hooks.CallNoResult(ctx, hook.PostAfterChange, p); err != nil {
		s.logger.Error("post saved but after-change hooks failed", "post_id", p.ID, "error", err)
	}
	return p, nil
}

func (s *PostService) validate(ctx context.Context, p *model.Post) error {
	fields := map[string]string{}

	if !p.HasCategory() {
		fields["category_id"] = "Category is required"
	} else if _, err := s.store.GetCategory(ctx, *p.CategoryID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("checking category: %w", err)
		}
		fields["category_id"] = "Category does not exist"
	}

	switch {
	case p.Slug == "":
		fields["slug"] = "Slug is required"
	case !util.IsValidSlug(p.Slug):
		fields["slug"] = "Invalid slug format (use lowercase letters, numbers, and hyphens)"
	default:
		exists, err := s.store.PostSlugExists(ctx, p.Slug, p.ID)
		if err != nil {
			return fmt.Errorf("checking slug: %w", err)
		}
		if exists {
			fields["slug"] = "Slug already exists"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
