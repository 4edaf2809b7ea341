package memory

import (
	"context"
	"sync"
	"time"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
)

var _ ports.ReconciliationStore = (*ReconciliationStore)(nil)

// ReconciliationStore keeps pending compensations in memory. Resolved
// entries stay in the map with a flag so the journal remains inspectable.
type ReconciliationStore struct {
	mu       sync.Mutex
	entries  map[int64]ports.PendingCompensation
	resolved map[int64]bool
	nextID   int64
}

func NewReconciliationStore() *ReconciliationStore {
	return &ReconciliationStore{
		entries:  map[int64]ports.PendingCompensation{},
		resolved: map[int64]bool{},
	}
}

func (s *ReconciliationStore) Enqueue(_ context.Context, pending ports.PendingCompensation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	pending.ID = s.nextID
	pending.CreatedAt = time.Now()
	s.entries[pending.ID] = pending
	return nil
}

func (s *ReconciliationStore) Pending(_ context.Context) ([]ports.PendingCompensation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []ports.PendingCompensation
	for id, entry := range s.entries {
		if !s.resolved[id] {
			list = append(list, entry)
		}
	}
	return list, nil
}

func (s *ReconciliationStore) Resolve(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return ports.ErrNotFound
	}
	s.resolved[id] = true
	return nil
}
