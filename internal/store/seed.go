package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olegiv/ocms-blog/internal/model"
)

// DefaultCategories are created by Seed when no categories exist.
var DefaultCategories = []model.Category{
	{Name: "Programming", Slug: "programming", Description: "Languages, tooling and software design"},
	{Name: "Infrastructure", Slug: "infrastructure", Description: "Servers, networks and operations"},
	{Name: "Machine Learning", Slug: "machine-learning", Description: "Models, data and applied AI"},
}

// Seed creates initial data in the database. Category translations are not
// created here; they are produced when categories are saved through the
// service layer.
func Seed(ctx context.Context, s *Store) error {
	existing, err := s.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("checking for categories: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("categories already exist, skipping seed")
		return nil
	}

	for _, c := range DefaultCategories {
		c := c
		if err := s.CreateCategory(ctx, &c); err != nil {
			return fmt.Errorf("seeding category %s: %w", c.Slug, err)
		}
		slog.Info("created category", "id", c.ID, "slug", c.Slug)
	}

	return nil
}
