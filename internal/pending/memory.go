package pending

import (
	"context"
	"sync"

	"pos-cart-service/internal/entity"
)

// MemoryStore is an in-process Store. It does not survive a restart, so it is
// only suitable for tests and single-run development setups.
type MemoryStore struct {
	mu sync.Mutex
	pp *entity.PendingPayment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (*entity.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pp == nil {
		return nil, nil
	}
	pp := *s.pp
	return &pp, nil
}

func (s *MemoryStore) Set(ctx context.Context, pp entity.PendingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pp = &pp
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pp = nil
	return nil
}
