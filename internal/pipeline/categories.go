// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/ocms-blog/internal/metrics"
	"github.com/olegiv/ocms-blog/internal/model"
)

// CategoryReport summarizes one category translation run.
type CategoryReport struct {
	CategoryID int64
	Locales    map[model.Locale]LocaleOutcome
	Err        error
}

// ScheduleCategory queues a translation run for a committed category.
func (p *Pipeline) ScheduleCategory(categoryID int64) bool {
	return p.runner.Schedule("category:"+strconv.FormatInt(categoryID, 10), false,
		func(ctx context.Context, _ bool) {
			p.TranslateCategory(ctx, categoryID)
		})
}

// TranslateCategory translates a category's name and description into every
// locale and upserts one row per locale.
func (p *Pipeline) TranslateCategory(ctx context.Context, categoryID int64) *CategoryReport {
	report := &CategoryReport{CategoryID: categoryID, Locales: map[model.Locale]LocaleOutcome{}}

	c, err := readAfterWrite(ctx, p.readRetry, func(ctx context.Context) (*model.Category, error) {
		return p.categories.GetCategory(ctx, categoryID)
	})
	if err != nil {
		report.Err = fmt.Errorf("reading category %d: %w", categoryID, err)
		p.logger.Error("category translation aborted", "category", model.EventCategoryTranslation,
			"category_id", categoryID, "error", err)
		return report
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, locale := range model.AllLocales {
		g.Go(func() error {
			o := p.translateCategoryLocale(ctx, c, locale)
			res := metrics.ResultSuccess
			if !o.OK() {
				res = metrics.ResultFailure
				p.logger.Warn("category translation failed", "category", model.EventCategoryTranslation,
					"category_id", c.ID, "locale", locale, "error", o.Err)
			}
			p.metrics.ObserveLocale(string(locale), res)
			mu.Lock()
			report.Locales[locale] = o
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return report
}

func (p *Pipeline) translateCategoryLocale(ctx context.Context, c *model.Category, locale model.Locale) LocaleOutcome {
	name, err := p.translator.Translate(ctx, c.Name, locale)
	if err != nil {
		return LocaleOutcome{Err: err}
	}
	description, err := p.translator.Translate(ctx, c.Description, locale)
	if err != nil {
		return LocaleOutcome{Err: err}
	}

	t := &model.CategoryTranslation{
		CategoryID:            c.ID,
		Locale:                locale,
		TranslatedName:        name,
		TranslatedDescription: description,
	}
	created, err := p.categories.UpsertCategoryTranslation(ctx, t)
	if err != nil {
		return LocaleOutcome{Err: err}
	}
	return LocaleOutcome{TranslationID: t.ID, Created: created}
}
