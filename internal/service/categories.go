// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olegiv/ocms-blog/internal/hook"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/util"
)

// CategoryStore is the persistence the category write path needs.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c *model.Category) error
	UpdateCategory(ctx context.Context, c *model.Category) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	CategorySlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
}

// CategoryService creates and updates categories through the lifecycle hooks.
type CategoryService struct {
	store  CategoryStore
	hooks  *hook.Registry
	logger *slog.Logger
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(s CategoryStore, hooks *hook.Registry, logger *slog.Logger) *CategoryService {
	return &CategoryService{store: s, hooks: hooks, logger: logger}
}

// Create inserts a new category.
func (s *CategoryService) Create(ctx context.Context, c *model.Category) (*model.Category, error) {
	c.ID = 0
	return s.save(ctx, c)
}

// Update writes changes to an existing category.
func (s *CategoryService) Update(ctx context.Context, c *model.Category) (*model.Category, error) {
	if c.ID == 0 {
		return nil, errors.New("update requires a category id")
	}
	if _, err := s.store.GetCategory(ctx, c.ID); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

func (s *CategoryService) save(ctx context.Context, c *model.Category) (*model.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, invalid("name", "Name is required")
	}

	out, err := s.hooks.Call(ctx, hook.CategoryBeforeValidate, c)
	if err != nil {
		return nil, fmt.Errorf("preparing category: %w", err)
	}
	c = out.(*model.Category)

	switch {
	case c.Slug == "":
		return nil, invalid("slug", "Slug is required")
	case !util.IsValidSlug(c.Slug):
		return nil, invalid("slug", "Invalid slug format (use lowercase letters, numbers, and hyphens)")
	}
	exists, err := s.store.CategorySlugExists(ctx, c.Slug, c.ID)
	if err != nil {
		return nil, fmt.Errorf("checking slug: %w", err)
	}
	if exists {
		return nil, invalid("slug", "Slug already exists")
	}

	out, err = s.hooks.Call(ctx, hook.CategoryBeforeChange, c)
	if err != nil {
		return nil, fmt.Errorf("preparing category: %w", err)
	}
	c = out.(*model.Category)

	if c.ID == 0 {
		err = s.store.CreateCategory(ctx, c)
	} else {
		err = s.store.UpdateCategory(ctx, c)
	}
	if err != nil {
		return nil, fmt.Errorf("saving category: %w", err)
	}

	if err := s.hooks.CallNoResult(ctx, hook.CategoryAfterChange, c); err != nil {
		s.logger.Error("category saved but after-change hooks failed", "category_id", c.ID, "error", err)
	}
	return c, nil
}
