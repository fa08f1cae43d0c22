// Package idempotency guarantees at most one bank submission per
// idempotency key.
//
// Each key moves through three states: absent, locked while its owner talks
// to the bank, and resolved once the outcome is committed. Resolved records
// replay the cached outcome for the same request and refuse a different one.
package idempotency

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"paygateway/internal/payment/bank"
	"paygateway/internal/payment/domain"
)

// Backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds idempotency configuration
type Config struct {
	Backend   string        `envconfig:"IDEMPOTENCY_BACKEND" default:"memory"`
	LockTTL   time.Duration `envconfig:"IDEMPOTENCY_LOCK_TTL" default:"30s"`
	RecordTTL time.Duration `envconfig:"IDEMPOTENCY_RECORD_TTL" default:"24h"`
	RedisURL  string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
}

// ErrLockLost is returned by Commit when the handle no longer owns the key,
// typically because its lease expired.
var ErrLockLost = errors.New("idempotency lock lost")

// CheckResult is the closed set of answers from CheckOrLock: Cached,
// LockObtained, Conflict and Busy.
type CheckResult interface {
	checkResult()
}

// Cached carries the outcome stored for an identical earlier request
type Cached struct {
	Outcome bank.Outcome
}

// LockObtained grants the caller exclusive ownership of the key
type LockObtained struct {
	Handle *LockHandle
}

// Conflict means the key was already used for a different request
type Conflict struct{}

// Busy means another caller currently holds the lock for the key
type Busy struct{}

func (Cached) checkResult()       {}
func (LockObtained) checkResult() {}
func (Conflict) checkResult()     {}
func (Busy) checkResult()         {}

// Guard is the idempotency state machine. Implementations must make the
// absent-to-locked transition atomic per key.
type Guard interface {
	// CheckOrLock returns the cached outcome, grants the lock, or reports
	// a conflict or contention.
	CheckOrLock(ctx context.Context, key string, intent domain.PaymentIntent) (CheckResult, error)
	// Commit stores the outcome for the intent's fingerprint and releases
	// the handle.
	Commit(ctx context.Context, handle *LockHandle, intent domain.PaymentIntent, outcome bank.Outcome) error
}

// LockHandle is proof of lock ownership. Release is safe to call more than
// once and after Commit; callers should defer it as soon as the lock is
// obtained.
type LockHandle struct {
	key     string
	token   string
	once    sync.Once
	release func(ctx context.Context, key, token string) error
}

func newLockHandle(key string, release func(ctx context.Context, key, token string) error) *LockHandle {
	return &LockHandle{
		key:     key,
		token:   ulid.Make().String(),
		release: release,
	}
}

// Key returns the locked idempotency key
func (h *LockHandle) Key() string {
	return h.key
}

// Release gives the key back without recording an outcome. It does nothing
// once the handle has been released or committed.
func (h *LockHandle) Release(ctx context.Context) error {
	var err error
	h.once.Do(func() {
		err = h.release(ctx, h.key, h.token)
	})
	return err
}

// resolved marks the handle as spent after a successful commit.
func (h *LockHandle) resolved() {
	h.once.Do(func() {})
}
