package pitches

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*Pitch
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: map[string]*Pitch{}}
}

func clonePitch(p *Pitch) *Pitch {
	c := *p
	c.Notes = append([]Note{}, p.Notes...)
	if p.ReviewedAt != nil {
		t := *p.ReviewedAt
		c.ReviewedAt = &t
	}
	return &c
}

func (m *MemoryRepository) Create(ctx context.Context, p *Pitch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Notes == nil {
		p.Notes = []Note{}
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.store[p.ID] = clonePitch(p)
	return nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*Pitch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePitch(p), nil
}

func (m *MemoryRepository) collect(keep func(*Pitch) bool) []*Pitch {
	out := []*Pitch{}
	for _, p := range m.store {
		if keep(p) {
			out = append(out, clonePitch(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemoryRepository) ListByWriter(ctx context.Context, writerID string) ([]*Pitch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(p *Pitch) bool { return p.WriterID == writerID }), nil
}

func (m *MemoryRepository) List(ctx context.Context, status Status, skip, limit int64) ([]*Pitch, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.collect(func(p *Pitch) bool { return status == "" || p.Status == status })
	total := int64(len(out))
	if skip >= total {
		return []*Pitch{}, total, nil
	}
	out = out[skip:]
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *MemoryRepository) Review(ctx context.Context, id string, status Status, note *Note, at time.Time) (*Pitch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Status = status
	p.ReviewedAt = &at
	p.UpdatedAt = at
	if note != nil {
		p.Notes = append(p.Notes, *note)
	}
	return clonePitch(p), nil
}
