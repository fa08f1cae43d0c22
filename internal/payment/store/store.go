// Package store persists payments the acquirer authorized or declined.
package store

import (
	"context"
	"fmt"

	"github.com/patrickmn/go-cache"

	"paygateway/internal/common/database"
	"paygateway/internal/payment/domain"
)

// Backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Store is keyed, write-once payment storage. It does no validation.
type Store interface {
	// Put saves a payment. A second Put for the same ID fails with
	// database.ErrAlreadyExists.
	Put(ctx context.Context, p *domain.StoredPayment) error
	// Get returns database.ErrNotFound for unknown IDs.
	Get(ctx context.Context, id string) (*domain.StoredPayment, error)
}

// MemoryStore keeps payments in process memory. Entries never expire.
type MemoryStore struct {
	payments *cache.Cache
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{payments: cache.New(cache.NoExpiration, 0)}
}

// Put implements Store
func (s *MemoryStore) Put(_ context.Context, p *domain.StoredPayment) error {
	stored := *p
	if err := s.payments.Add(p.ID, &stored, cache.NoExpiration); err != nil {
		return fmt.Errorf("payment %s: %w", p.ID, database.ErrAlreadyExists)
	}
	return nil
}

// Get implements Store
func (s *MemoryStore) Get(_ context.Context, id string) (*domain.StoredPayment, error) {
	v, found := s.payments.Get(id)
	if !found {
		return nil, fmt.Errorf("payment %s: %w", id, database.ErrNotFound)
	}
	p := *v.(*domain.StoredPayment)
	return &p, nil
}
