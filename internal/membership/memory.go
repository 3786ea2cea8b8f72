// internal/membership/memory.go
package membership

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps memberships in process. Ids are never reused.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[int64]Membership
	order  []int64
	nextID int64
	now    func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:   make(map[int64]Membership),
		nextID: 1,
		now:    time.Now,
	}
}

func (s *MemoryStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// All returns rows in insertion order.
func (s *MemoryStore) All(ctx context.Context) ([]*Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Membership, 0, len(s.order))
	for _, id := range s.order {
		m := s.rows[id]
		out = append(out, &m)
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, nm NewMembership) (*Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timestamp()
	m := Membership{
		ID:        s.nextID,
		UserID:    nm.UserID,
		Status:    nm.Status,
		Position:  nm.Position,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.rows[m.ID] = m
	s.order = append(s.order, m.ID)
	return &m, nil
}

func (s *MemoryStore) Find(ctx context.Context, id int64) (*Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

// Update merges patch into the row. An empty patch leaves updated_at alone.
func (s *MemoryStore) Update(ctx context.Context, id int64, patch Patch) (*Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Empty() {
		return &m, nil
	}
	m = patch.Apply(m)
	m.UpdatedAt = s.timestamp()
	s.rows[id] = m
	return &m, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
