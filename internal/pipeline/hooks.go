// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"context"
	"fmt"

	"github.com/olegiv/ocms-blog/internal/hook"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/util"
)

const hookOwner = "pipeline"

// RegisterHooks attaches the pipeline to post and category writes.
func (p *Pipeline) RegisterHooks(reg *hook.Registry) {
	reg.RegisterFunc(hook.PostBeforeValidate, "post_slug", hookOwner, p.postSlug)
	reg.Register(hook.PostBeforeValidate, hook.Handler{
		Name:     "post_cover",
		Owner:    hookOwner,
		Priority: 10,
		Fn:       p.postCover,
	})
	reg.RegisterFunc(hook.PostBeforeChange, "capture_regenerate", hookOwner, p.captureRegenerate)
	reg.RegisterFunc(hook.PostAfterChange, "schedule_post_run", hookOwner, p.schedulePostRun)

	reg.RegisterFunc(hook.CategoryBeforeValidate, "category_slug", hookOwner, p.categorySlug)
	reg.RegisterFunc(hook.CategoryAfterChange, "schedule_category_translation", hookOwner, p.scheduleCategoryRun)
}

func asPost(data any) (*model.Post, error) {
	post, ok := data.(*model.Post)
	if !ok || post == nil {
		return nil, fmt.Errorf("expected *model.Post, got %T", data)
	}
	return post, nil
}

func asCategory(data any) (*model.Category, error) {
	c, ok := data.(*model.Category)
	if !ok || c == nil {
		return nil, fmt.Errorf("expected *model.Category, got %T", data)
	}
	return c, nil
}

// postSlug derives a free slug from the title when none was supplied.
func (p *Pipeline) postSlug(ctx context.Context, data any) (any, error) {
	post, err := asPost(data)
	if err != nil {
		return nil, err
	}
	if post.Slug != "" {
		return post, nil
	}
	base := util.Slugify(post.Title)
	if base == "" {
		return post, nil
	}
	post.Slug, err = util.UniqueSlug(base, func(s string) (bool, error) {
		return p.posts.PostSlugExists(ctx, s, post.ID)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// postCover synthesizes a cover and thumbnail before the post is first
// stored. A generation failure aborts the write.
func (p *Pipeline) postCover(ctx context.Context, data any) (any, error) {
	post, err := asPost(data)
	if err != nil {
		return nil, err
	}
	if post.HasCover() || p.covers == nil || post.Title == "" {
		return post, nil
	}

	cover, err := p.covers.Generate(ctx, post.Title)
	if err != nil {
		return nil, fmt.Errorf("generating cover for %q: %w", post.Title, err)
	}

	image, err := p.media.SaveImage(ctx, cover.Image, post.Title)
	if err != nil {
		return nil, fmt.Errorf("saving cover image: %w", err)
	}
	thumb, err := p.media.SaveImage(ctx, cover.Thumbnail, post.Title)
	if err != nil {
		return nil, fmt.Errorf("saving cover thumbnail: %w", err)
	}

	post.CoverImageID = &image.ID
	post.CoverThumbnailID = &thumb.ID
	p.logger.Info("cover image generated", "category", model.EventCategoryImage,
		"title", post.Title, "media_id", image.ID)
	return post, nil
}

// captureRegenerate moves the regenerate flag from the document into the
// write state, so the stored row never carries it.
func (p *Pipeline) captureRegenerate(ctx context.Context, data any) (any, error) {
	post, err := asPost(data)
	if err != nil {
		return nil, err
	}
	if st := WriteStateFrom(ctx); st != nil {
		st.Regenerate = st.Regenerate || post.Regenerate
	} else if post.Regenerate {
		p.logger.Warn("regenerate requested outside a write, ignoring", "post_id", post.ID)
	}
	post.Regenerate = false
	return post, nil
}

func (p *Pipeline) schedulePostRun(ctx context.Context, data any) (any, error) {
	post, err := asPost(data)
	if err != nil {
		return nil, err
	}
	regenerate := false
	if st := WriteStateFrom(ctx); st != nil {
		regenerate = st.Regenerate
	}
	p.SchedulePost(post.ID, regenerate)
	return post, nil
}

func (p *Pipeline) categorySlug(ctx context.Context, data any) (any, error) {
	c, err := asCategory(data)
	if err != nil {
		return nil, err
	}
	if c.Slug != "" {
		return c, nil
	}
	base := util.Slugify(c.Name)
	if base == "" {
		return c, nil
	}
	c.Slug, err = util.UniqueSlug(base, func(s string) (bool, error) {
		return p.categories.CategorySlugExists(ctx, s, c.ID)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Pipeline) scheduleCategoryRun(_ context.Context, data any) (any, error) {
	c, err := asCategory(data)
	if err != nil {
		return nil, err
	}
	p.ScheduleCategory(c.ID)
	return c, nil
}
