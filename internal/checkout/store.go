package checkout

import (
	"context"
	"sync"
)

type Store interface {
	Create(ctx context.Context, r Receipt) error
	Get(ctx context.Context, id string) (Receipt, bool, error)
}

type MemStore struct {
	mu sync.RWMutex
	m  map[string]Receipt
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string]Receipt{}}
}

func (s *MemStore) Create(_ context.Context, r Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[r.ID] = r
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (Receipt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.m[id]
	return r, ok, nil
}
