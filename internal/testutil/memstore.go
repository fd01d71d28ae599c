// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package testutil

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/store"
)

type vectorKey struct {
	id     int64
	locale model.Locale
}

// MemStore is an in-memory stand-in for store.Store. It enforces the same
// (post, locale), (category, locale) and (translation, locale) uniqueness
// and computes nearest neighbours by brute force.
type MemStore struct {
	mu sync.Mutex

	nextID int64
	now    func() time.Time

	Posts           map[int64]*model.Post
	Categories      map[int64]*model.Category
	Media           map[int64]*model.Media
	Translations    map[int64]*model.PostTranslation
	CatTranslations map[int64]*model.CategoryTranslation
	Vectors         map[vectorKey]*model.EmbeddingRecord
	Subscribers     map[string]*model.Subscriber
	Events          []model.Event
	Usage           []model.AIUsage

	// VectorQueries counts NearestTranslations calls.
	VectorQueries int
	// HiddenReads makes the next n GetPost calls report ErrNotFound, as a
	// lagging read replica would.
	HiddenReads int
	// FailUpsert makes UpsertPostTranslation fail for the given locales.
	FailUpsert map[model.Locale]error
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		now:             time.Now,
		Posts:           map[int64]*model.Post{},
		Categories:      map[int64]*model.Category{},
		Media:           map[int64]*model.Media{},
		Translations:    map[int64]*model.PostTranslation{},
		CatTranslations: map[int64]*model.CategoryTranslation{},
		Vectors:         map[vectorKey]*model.EmbeddingRecord{},
		Subscribers:     map[string]*model.Subscriber{},
	}
}

func (m *MemStore) id() int64 {
	m.nextID++
	return m.nextID
}

// tick returns a strictly increasing timestamp so that successive writes
// are ordered even on coarse clocks.
func (m *MemStore) tick() time.Time {
	return m.now().Add(time.Duration(m.nextID) * time.Microsecond)
}

func notFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, store.ErrNotFound)
}

// Ping always succeeds.
func (m *MemStore) Ping(context.Context) error { return nil }

// Posts

func (m *MemStore) CreatePost(_ context.Context, p *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.Posts {
		if other.Slug == p.Slug {
			return fmt.Errorf("duplicate post slug %q", p.Slug)
		}
	}
	p.ID = m.id()
	p.CreatedAt = m.tick()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.Posts[p.ID] = &cp
	return nil
}

func (m *MemStore) UpdatePost(_ context.Context, p *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.Posts[p.ID]
	if !ok {
		return notFound("post", p.ID)
	}
	p.CreatedAt = old.CreatedAt
	m.id()
	p.UpdatedAt = m.tick()
	cp := *p
	m.Posts[p.ID] = &cp
	return nil
}

func (m *MemStore) GetPost(_ context.Context, id int64) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HiddenReads > 0 {
		m.HiddenReads--
		return nil, notFound("post", id)
	}
	p, ok := m.Posts[id]
	if !ok {
		return nil, notFound("post", id)
	}
	cp := *p
	return &cp, nil
}

func (m *MemStore) ListPosts(_ context.Context, limit, offset int) ([]model.Post, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]model.Post, 0, len(m.Posts))
	for _, p := range m.Posts {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Post{}, total, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], total, nil
}

func (m *MemStore) PostSlugExists(_ context.Context, slug string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Posts {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// Categories

func (m *MemStore) CreateCategory(_ context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	c.CreatedAt = m.tick()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.Categories[c.ID] = &cp
	return nil
}

func (m *MemStore) UpdateCategory(_ context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.Categories[c.ID]
	if !ok {
		return notFound("category", c.ID)
	}
	c.CreatedAt = old.CreatedAt
	m.id()
	c.UpdatedAt = m.tick()
	cp := *c
	m.Categories[c.ID] = &cp
	return nil
}

func (m *MemStore) postCountLocked(categoryID int64) int64 {
	var n int64
	for _, p := range m.Posts {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			n++
		}
	}
	return n
}

func (m *MemStore) GetCategory(_ context.Context, id int64) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Categories[id]
	if !ok {
		return nil, notFound("category", id)
	}
	cp := *c
	cp.PostCount = m.postCountLocked(id)
	return &cp, nil
}

func (m *MemStore) ListCategories(_ context.Context) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Category, 0, len(m.Categories))
	for _, c := range m.Categories {
		cp := *c
		cp.PostCount = m.postCountLocked(c.ID)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) CategorySlugExists(_ context.Context, slug string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Categories {
		if c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) UpsertCategoryTranslation(_ context.Context, t *model.CategoryTranslation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.CatTranslations {
		if existing.CategoryID == t.CategoryID && existing.Locale == t.Locale {
			t.ID = existing.ID
			t.CreatedAt = existing.CreatedAt
			m.id()
			t.UpdatedAt = m.tick()
			cp := *t
			m.CatTranslations[t.ID] = &cp
			return false, nil
		}
	}
	t.ID = m.id()
	t.CreatedAt = m.tick()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.CatTranslations[t.ID] = &cp
	return true, nil
}

func (m *MemStore) ListCategoryTranslations(_ context.Context, categoryID int64) ([]model.CategoryTranslation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CategoryTranslation
	for _, t := range m.CatTranslations {
		if t.CategoryID == categoryID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Locale < out[j].Locale })
	return out, nil
}

// Post translations

func (m *MemStore) UpsertPostTranslation(_ context.Context, t *model.PostTranslation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailUpsert[t.Locale]; err != nil {
		return false, err
	}
	for _, existing := range m.Translations {
		if existing.PostID == t.PostID && existing.Locale == t.Locale {
			t.ID = existing.ID
			t.CreatedAt = existing.CreatedAt
			m.id()
			t.UpdatedAt = m.tick()
			cp := *t
			cp.Post = nil
			m.Translations[t.ID] = &cp
			return false, nil
		}
	}
	t.ID = m.id()
	t.CreatedAt = m.tick()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	cp.Post = nil
	m.Translations[t.ID] = &cp
	return true, nil
}

// TranslationFor returns the row for (post, locale), or nil.
func (m *MemStore) TranslationFor(postID int64, locale model.Locale) *model.PostTranslation {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Translations {
		if t.PostID == postID && t.Locale == locale {
			cp := *t
			return &cp
		}
	}
	return nil
}

func (m *MemStore) GetPostTranslation(_ context.Context, id int64) (*model.PostTranslation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Translations[id]
	if !ok {
		return nil, notFound("post translation", id)
	}
	cp := *t
	return &cp, nil
}

func (m *MemStore) ListPostTranslations(_ context.Context, postID int64) ([]model.PostTranslation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PostTranslation
	for _, t := range m.Translations {
		if t.PostID == postID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Locale < out[j].Locale })
	return out, nil
}

func (m *MemStore) ListTranslationsMissingEmbedding(_ context.Context, limit int) ([]model.PostTranslation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PostTranslation
	for _, t := range m.Translations {
		if _, ok := m.Vectors[vectorKey{t.ID, t.Locale}]; !ok {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) ListPostTranslationsByIDs(_ context.Context, ids []int64) ([]model.PostTranslation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PostTranslation
	for _, id := range ids {
		t, ok := m.Translations[id]
		if !ok {
			continue
		}
		cp := *t
		if p, ok := m.Posts[t.PostID]; ok {
			post := *p
			if post.CategoryID != nil {
				if c, ok := m.Categories[*post.CategoryID]; ok {
					cat := *c
					post.Category = &cat
				}
			}
			if post.CoverImageID != nil {
				post.CoverImage = m.Media[*post.CoverImageID]
			}
			if post.CoverThumbnailID != nil {
				post.CoverThumbnail = m.Media[*post.CoverThumbnailID]
			}
			cp.Post = &post
		}
		out = append(out, cp)
	}
	// The database returns rows in arbitrary order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Vectors

func (m *MemStore) UpsertEmbedding(_ context.Context, rec *model.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Translations[rec.PostTranslationID]; !ok {
		return fmt.Errorf("embedding for missing translation %d", rec.PostTranslationID)
	}
	m.id()
	rec.UpdatedAt = m.tick()
	cp := *rec
	cp.Embedding = append([]float32(nil), rec.Embedding...)
	m.Vectors[vectorKey{rec.PostTranslationID, rec.Locale}] = &cp
	return nil
}

func (m *MemStore) GetEmbedding(_ context.Context, postTranslationID int64, locale model.Locale) (*model.EmbeddingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Vectors[vectorKey{postTranslationID, locale}]
	if !ok {
		return nil, notFound("embedding", postTranslationID)
	}
	cp := *rec
	return &cp, nil
}

// CountEmbeddings returns how many vector rows exist for a translation.
func (m *MemStore) CountEmbeddings(_ context.Context, postTranslationID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.Vectors {
		if k.id == postTranslationID {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) NearestTranslations(_ context.Context, locale model.Locale, query []float32, limit int) ([]store.VectorMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VectorQueries++
	var out []store.VectorMatch
	for k, rec := range m.Vectors {
		if k.locale != locale {
			continue
		}
		out = append(out, store.VectorMatch{
			PostTranslationID: k.id,
			Locale:            k.locale,
			Distance:          l2(rec.Embedding, query),
			UpdatedAt:         rec.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].PostTranslationID < out[j].PostTranslationID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range min(len(a), len(b)) {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Media

func (m *MemStore) CreateMedia(_ context.Context, md *model.Media) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	md.ID = m.id()
	md.CreatedAt = m.tick()
	cp := *md
	m.Media[md.ID] = &cp
	return nil
}

func (m *MemStore) GetMedia(_ context.Context, id int64) (*model.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	md, ok := m.Media[id]
	if !ok {
		return nil, notFound("media", id)
	}
	cp := *md
	return &cp, nil
}

// Subscribers

func (m *MemStore) Subscribe(_ context.Context, sub *model.Subscriber) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.Subscribers[sub.Email]; ok {
		existing.Locale = sub.Locale
		*sub = *existing
		return false, nil
	}
	sub.ID = m.id()
	sub.SubscribedAt = m.tick()
	cp := *sub
	m.Subscribers[sub.Email] = &cp
	return true, nil
}

func (m *MemStore) ListSubscribers(_ context.Context, locale model.Locale) ([]model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscriber
	for _, s := range m.Subscribers {
		if locale == "" || s.Locale == locale {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Events and usage

func (m *MemStore) CreateEvent(_ context.Context, level, category, message, metadata string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, model.Event{
		ID: m.id(), Level: level, Category: category, Message: message, Metadata: metadata, CreatedAt: at,
	})
	return nil
}

func (m *MemStore) ListEvents(_ context.Context, category string, limit, offset int) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Event
	for i := len(m.Events) - 1; i >= 0; i-- {
		if category == "" || m.Events[i].Category == category {
			out = append(out, m.Events[i])
		}
	}
	if offset >= len(out) {
		return []model.Event{}, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func (m *MemStore) CreateAIUsage(_ context.Context, u model.AIUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Usage = append(m.Usage, u)
	return nil
}
