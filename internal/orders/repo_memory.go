package orders

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps orders in a map. Values are deep-copied in and out.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	nextItemID int64
	byID       map[int64]Order
	now        func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:     1,
		nextItemID: 1,
		byID:       make(map[int64]Order),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func clone(o Order) Order {
	o.Items = append([]OrderItem(nil), o.Items...)
	return o
}

func (m *MemoryStore) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.nextID
	m.nextID++
	for i := range o.Items {
		o.Items[i].ID = m.nextItemID
		m.nextItemID++
	}
	o.OrderDate = m.now()
	o.UpdatedAt = o.OrderDate
	m.byID[o.ID] = clone(*o)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	c := clone(o)
	return &c, nil
}

func (m *MemoryStore) Update(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[o.ID]
	if !ok {
		return ErrOrderNotFound
	}
	cur.Status = o.Status
	cur.ShippingAddress = o.ShippingAddress
	cur.BillingAddress = o.BillingAddress
	cur.PaymentMethod = o.PaymentMethod
	cur.Notes = o.Notes
	cur.UpdatedAt = m.now()
	o.UpdatedAt = cur.UpdatedAt
	m.byID[o.ID] = cur
	return nil
}

func (m *MemoryStore) List(_ context.Context, f ListFilter) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Order, 0, len(m.byID))
	for _, o := range m.byID {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.From != nil && o.OrderDate.Before(*f.From) {
			continue
		}
		if f.To != nil && o.OrderDate.After(*f.To) {
			continue
		}
		out = append(out, clone(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len is the number of stored orders.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
