package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"paygateway/internal/payment/bank"
	"paygateway/internal/payment/domain"
)

const (
	redisKeyPrefix  = "idempotency:"
	redisLockPrefix = "lock:"
)

// commitScript replaces the lock value with the resolved record only if the
// caller still owns the lock.
var commitScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
end
return false
`)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisRecord struct {
	Fingerprint string          `json:"fingerprint"`
	Outcome     json.RawMessage `json:"outcome"`
}

// RedisGuard stores idempotency records in Redis so several gateway
// instances share them. A key holds either "lock:<token>" with the lock TTL
// or a JSON record with the record TTL.
type RedisGuard struct {
	rdb       redis.UniversalClient
	lockTTL   time.Duration
	recordTTL time.Duration
}

// NewRedisGuard creates a Redis-backed guard
func NewRedisGuard(rdb redis.UniversalClient, lockTTL, recordTTL time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, lockTTL: lockTTL, recordTTL: recordTTL}
}

// NewRedisClient connects using a redis:// URL and verifies the connection
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// CheckOrLock implements Guard
func (g *RedisGuard) CheckOrLock(ctx context.Context, key string, intent domain.PaymentIntent) (CheckResult, error) {
	fp := domain.Fingerprint(intent)
	rkey := redisKeyPrefix + key

	// The key can expire between SETNX and GET; one retry covers that.
	for attempt := 0; attempt < 2; attempt++ {
		h := newLockHandle(key, g.release)
		ok, err := g.rdb.SetNX(ctx, rkey, redisLockPrefix+h.token, g.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire idempotency lock: %w", err)
		}
		if ok {
			return LockObtained{Handle: h}, nil
		}

		raw, err := g.rdb.Get(ctx, rkey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read idempotency record: %w", err)
		}
		if strings.HasPrefix(raw, redisLockPrefix) {
			return Busy{}, nil
		}

		var rec redisRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode idempotency record: %w", err)
		}
		if rec.Fingerprint != fp {
			return Conflict{}, nil
		}
		outcome, err := bank.DecodeOutcome(rec.Outcome)
		if err != nil {
			return nil, err
		}
		return Cached{Outcome: outcome}, nil
	}

	return Busy{}, nil
}

// Commit implements Guard
func (g *RedisGuard) Commit(ctx context.Context, h *LockHandle, intent domain.PaymentIntent, outcome bank.Outcome) error {
	encoded, err := bank.EncodeOutcome(outcome)
	if err != nil {
		return err
	}
	rec, err := json.Marshal(redisRecord{
		Fingerprint: domain.Fingerprint(intent),
		Outcome:     encoded,
	})
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}

	err = commitScript.Run(ctx, g.rdb,
		[]string{redisKeyPrefix + h.key},
		redisLockPrefix+h.token, string(rec), strconv.FormatInt(g.recordTTL.Milliseconds(), 10),
	).Err()
	if errors.Is(err, redis.Nil) {
		return ErrLockLost
	}
	if err != nil {
		return fmt.Errorf("commit idempotency record: %w", err)
	}

	h.resolved()
	return nil
}

func (g *RedisGuard) release(ctx context.Context, key, token string) error {
	err := releaseScript.Run(ctx, g.rdb, []string{redisKeyPrefix + key}, redisLockPrefix+token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release idempotency lock: %w", err)
	}
	return nil
}
