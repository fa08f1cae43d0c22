package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"paygateway/internal/payment/bank"
	"paygateway/internal/payment/domain"
)

type memoryEntry struct {
	fingerprint string
	token       string
	outcome     bank.Outcome // nil while locked
}

// MemoryGuard keeps idempotency records in process memory. Entries expire
// on their own: locks after the lock TTL and resolved records after the
// record TTL.
type MemoryGuard struct {
	mu        sync.Mutex
	entries   *cache.Cache
	lockTTL   time.Duration
	recordTTL time.Duration
}

// NewMemoryGuard creates an in-memory guard
func NewMemoryGuard(lockTTL, recordTTL time.Duration) *MemoryGuard {
	return &MemoryGuard{
		entries:   cache.New(recordTTL, time.Minute),
		lockTTL:   lockTTL,
		recordTTL: recordTTL,
	}
}

// CheckOrLock implements Guard
func (g *MemoryGuard) CheckOrLock(ctx context.Context, key string, intent domain.PaymentIntent) (CheckResult, error) {
	fp := domain.Fingerprint(intent)

	g.mu.Lock()
	defer g.mu.Unlock()

	v, found := g.entries.Get(key)
	if !found {
		h := newLockHandle(key, g.release)
		g.entries.Set(key, memoryEntry{fingerprint: fp, token: h.token}, g.lockTTL)
		return LockObtained{Handle: h}, nil
	}

	e := v.(memoryEntry)
	switch {
	case e.outcome == nil:
		return Busy{}, nil
	case e.fingerprint != fp:
		return Conflict{}, nil
	default:
		return Cached{Outcome: e.outcome}, nil
	}
}

// Commit implements Guard
func (g *MemoryGuard) Commit(ctx context.Context, h *LockHandle, intent domain.PaymentIntent, outcome bank.Outcome) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	v, found := g.entries.Get(h.key)
	if !found {
		return ErrLockLost
	}
	if e := v.(memoryEntry); e.outcome != nil || e.token != h.token {
		return ErrLockLost
	}

	g.entries.Set(h.key, memoryEntry{
		fingerprint: domain.Fingerprint(intent),
		outcome:     outcome,
	}, g.recordTTL)
	h.resolved()
	return nil
}

func (g *MemoryGuard) release(_ context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	v, found := g.entries.Get(key)
	if !found {
		return nil
	}
	if e := v.(memoryEntry); e.outcome == nil && e.token == token {
		g.entries.Delete(key)
	}
	return nil
}
