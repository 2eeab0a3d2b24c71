package repositories

import (
	"sync"
	"time"

	"lojinha/internal/models"
)

// MemoryOrderStore is the in-memory implementation of OrderStore. A single
// coarse RWMutex guards the whole map; traffic is a handful of requests per
// second, so per-record locking would buy nothing.
type MemoryOrderStore struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMemoryOrderStore creates a new instance of MemoryOrderStore.
func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		orders: make(map[string]models.Order),
	}
}

// Put inserts or overwrites the record for order.PaymentID.
func (s *MemoryOrderStore) Put(order models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = time.Now()
	s.orders[order.PaymentID] = order
	return nil
}

// Get returns the record for paymentID, or ok=false if it is unknown.
func (s *MemoryOrderStore) Get(paymentID string) (*models.Order, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[paymentID]
	if !ok {
		return nil, false, nil
	}
	return &order, true, nil
}

// UpdateStatus overwrites status and detail, refreshing UpdatedAt. Absent
// keys are silently skipped.
func (s *MemoryOrderStore) UpdateStatus(paymentID string, status models.PaymentStatus, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[paymentID]
	if !ok {
		return nil
	}
	order.Status = status
	order.StatusDetail = detail
	order.UpdatedAt = time.Now()
	s.orders[paymentID] = order
	return nil
}

// SweepExpired deletes every record created before now-maxAge.
func (s *MemoryOrderStore) SweepExpired(maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, order := range s.orders {
		if order.CreatedAt.Before(cutoff) {
			delete(s.orders, id)
			removed++
		}
	}
	return removed, nil
}
