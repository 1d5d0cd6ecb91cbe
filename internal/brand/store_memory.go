package brand

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore keeps brands in memory; it mirrors the remote API's behaviour of
// answering ErrNotFound for unknown ids.
type MemStore struct {
	mu     sync.RWMutex
	nextID int64
	m      map[int64]Brand
	now    func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{nextID: 1, m: map[int64]Brand{}, now: time.Now}
}

func (s *MemStore) List(ctx context.Context) ([]Brand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Brand, 0, len(s.m))
	for _, b := range s.m {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Create(ctx context.Context, in Valid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.stamp()
	b := apply(Brand{ID: s.nextID, Active: true, CreatedAt: ts}, in, ts)
	s.m[b.ID] = b
	s.nextID++
	return nil
}

func (s *MemStore) Update(ctx context.Context, id int64, in Valid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.m[id]
	if !ok {
		return ErrNotFound
	}
	s.m[id] = apply(b, in, s.stamp())
	return nil
}

func (s *MemStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return ErrNotFound
	}
	delete(s.m, id)
	return nil
}

func (s *MemStore) stamp() string {
	return s.now().UTC().Format(time.DateTime)
}

func apply(b Brand, in Valid, ts string) Brand {
	b.Name = in.Name
	b.Country = in.Country
	b.FoundedYear = in.FoundedYear
	b.Description = in.Description
	b.UpdatedAt = ts
	return b
}
