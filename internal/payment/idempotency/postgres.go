package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"paygateway/internal/common/database"
	"paygateway/internal/payment/bank"
	"paygateway/internal/payment/domain"
)

// PostgresGuard stores idempotency records in the idempotency_keys table.
type PostgresGuard struct {
	db        database.Querier
	lockTTL   time.Duration
	recordTTL time.Duration
	now       func() time.Time
}

// NewPostgresGuard creates a Postgres-backed guard
func NewPostgresGuard(db database.Querier, lockTTL, recordTTL time.Duration) *PostgresGuard {
	return &PostgresGuard{
		db:        db,
		lockTTL:   lockTTL,
		recordTTL: recordTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// acquireSQL inserts a lock row, or takes over a row whose record expired or
// whose lock lease ran out. Zero affected rows means someone else owns the
// key.
const acquireSQL = `
INSERT INTO idempotency_keys (key, fingerprint, lock_token, locked_until, outcome, expires_at)
VALUES ($1, $2, $3, $4, NULL, $4)
ON CONFLICT (key) DO UPDATE SET
	fingerprint = EXCLUDED.fingerprint,
	lock_token = EXCLUDED.lock_token,
	locked_until = EXCLUDED.locked_until,
	outcome = NULL,
	expires_at = EXCLUDED.expires_at
WHERE idempotency_keys.expires_at < $5
	OR (idempotency_keys.outcome IS NULL AND idempotency_keys.locked_until < $5)`

// CheckOrLock implements Guard
func (g *PostgresGuard) CheckOrLock(ctx context.Context, key string, intent domain.PaymentIntent) (CheckResult, error) {
	fp := domain.Fingerprint(intent)

	for attempt := 0; attempt < 2; attempt++ {
		now := g.now()
		h := newLockHandle(key, g.release)

		tag, err := g.db.Exec(ctx, acquireSQL, key, fp, h.token, now.Add(g.lockTTL), now)
		if err != nil {
			return nil, fmt.Errorf("acquire idempotency lock: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return LockObtained{Handle: h}, nil
		}

		var storedFP string
		var outcome []byte
		err = g.db.QueryRow(ctx,
			`SELECT fingerprint, outcome FROM idempotency_keys WHERE key = $1`, key,
		).Scan(&storedFP, &outcome)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read idempotency record: %w", err)
		}

		if outcome == nil {
			return Busy{}, nil
		}
		if storedFP != fp {
			return Conflict{}, nil
		}
		decoded, err := bank.DecodeOutcome(outcome)
		if err != nil {
			return nil, err
		}
		return Cached{Outcome: decoded}, nil
	}

	return Busy{}, nil
}

// Commit implements Guard
func (g *PostgresGuard) Commit(ctx context.Context, h *LockHandle, intent domain.PaymentIntent, outcome bank.Outcome) error {
	encoded, err := bank.EncodeOutcome(outcome)
	if err != nil {
		return err
	}

	tag, err := g.db.Exec(ctx, `
		UPDATE idempotency_keys
		SET fingerprint = $3, outcome = $4, lock_token = NULL, locked_until = NULL, expires_at = $5
		WHERE key = $1 AND lock_token = $2 AND outcome IS NULL`,
		h.key, h.token, domain.Fingerprint(intent), encoded, g.now().Add(g.recordTTL),
	)
	if err != nil {
		return fmt.Errorf("commit idempotency record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLockLost
	}

	h.resolved()
	return nil
}

func (g *PostgresGuard) release(ctx context.Context, key, token string) error {
	_, err := g.db.Exec(ctx,
		`DELETE FROM idempotency_keys WHERE key = $1 AND lock_token = $2 AND outcome IS NULL`,
		key, token,
	)
	if err != nil {
		return fmt.Errorf("release idempotency lock: %w", err)
	}
	return nil
}
