package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quillpress/quillpress/internal/articles"
)

// MemoryRepo is an in-memory repository used by unit tests and local runs.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*articles.Article
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*articles.Article)}
}

func cloneArticle(a *articles.Article) *articles.Article {
	c := *a
	c.Tags = append([]string{}, a.Tags...)
	c.LikedBy = append([]string{}, a.LikedBy...)
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}

func (m *MemoryRepo) slugTaken(slug, exceptID string) bool {
	for id, a := range m.store {
		if a.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func (m *MemoryRepo) Create(ctx context.Context, a *articles.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(a.Slug, "") {
		return articles.ErrDuplicateSlug
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	m.store[a.ID] = cloneArticle(a)
	return nil
}

func (m *MemoryRepo) GetByID(ctx context.Context, id string) (*articles.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.store[id]; ok {
		return cloneArticle(a), nil
	}
	return nil, articles.ErrNotFound
}

func (m *MemoryRepo) View(ctx context.Context, slug string) (*articles.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.store {
		if a.Slug == slug && a.Status == articles.StatusPublished {
			a.Views++
			return cloneArticle(a), nil
		}
	}
	return nil, articles.ErrNotFound
}

func matches(a *articles.Article, f articles.Filter) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(a.Category, f.Category) {
		return false
	}
	if f.Featured != nil && a.Featured != *f.Featured {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, t := range a.Tags {
			if t == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(a.Title+" "+a.Summary), q) {
			return false
		}
	}
	return true
}

func sortKey(a *articles.Article) time.Time {
	if a.PublishedAt != nil {
		return *a.PublishedAt
	}
	return a.CreatedAt
}

func (m *MemoryRepo) List(ctx context.Context, f articles.Filter) ([]*articles.Article, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*articles.Article, 0, len(m.store))
	for _, a := range m.store {
		if matches(a, f) {
			out = append(out, cloneArticle(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return sortKey(out[i]).After(sortKey(out[j])) })
	total := int64(len(out))
	if f.Skip >= total {
		return []*articles.Article{}, total, nil
	}
	out = out[f.Skip:]
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *MemoryRepo) Update(ctx context.Context, id string, p articles.Patch) (*articles.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok {
		return nil, articles.ErrNotFound
	}
	if p.Slug != nil && m.slugTaken(*p.Slug, id) {
		return nil, articles.ErrDuplicateSlug
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Slug != nil {
		a.Slug = *p.Slug
	}
	if p.Summary != nil {
		a.Summary = *p.Summary
	}
	if p.Body != nil {
		a.Body = *p.Body
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Tags != nil {
		a.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Featured != nil {
		a.Featured = *p.Featured
	}
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		a.PublishedAt = &t
	}
	a.UpdatedAt = time.Now().UTC()
	return cloneArticle(a), nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return articles.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MemoryRepo) Like(ctx context.Context, id, userID string) (*articles.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok {
		return nil, articles.ErrNotFound
	}
	for _, u := range a.LikedBy {
		if u == userID {
			return cloneArticle(a), nil
		}
	}
	a.LikedBy = append(a.LikedBy, userID)
	return cloneArticle(a), nil
}
