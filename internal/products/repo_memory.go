package products

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a Store backed by a map; used by tests and local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]Product
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		byID:   make(map[int64]Product),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Create(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.byID[p.ID] = *p
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) Update(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.byID[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = m.now()
	m.byID[p.ID] = *p
	return nil
}

func (m *MemoryStore) List(_ context.Context, f Filter) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Product, 0, len(m.byID))
	for _, p := range m.byID {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) AdjustStock(_ context.Context, id int64, delta int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok || p.StockQuantity < delta {
		return false, nil
	}
	p.StockQuantity -= delta
	p.UpdatedAt = m.now()
	m.byID[id] = p
	return true, nil
}
