package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygateway/internal/payment/bank"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisGuard(t *testing.T) {
	runGuardContract(t, func(t *testing.T, lockTTL time.Duration) guardHarness {
		mr, rdb := newTestRedis(t)
		return guardHarness{
			guard:       NewRedisGuard(rdb, lockTTL, time.Hour),
			expireLocks: func() { mr.FastForward(lockTTL + time.Millisecond) },
		}
	})
}

func TestRedisGuardRecordTTL(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	g := NewRedisGuard(rdb, time.Minute, 24*time.Hour)
	intent := testIntent(t, 100)

	res, err := g.CheckOrLock(ctx, "ttl", intent)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL(redisKeyPrefix+"ttl"))

	require.NoError(t, g.Commit(ctx, lockFrom(t, res), intent, bank.Declined{}))
	assert.Equal(t, 24*time.Hour, mr.TTL(redisKeyPrefix+"ttl"))

	mr.FastForward(25 * time.Hour)
	res, err = g.CheckOrLock(ctx, "ttl", testIntent(t, 700))
	require.NoError(t, err)
	lockFrom(t, res)
}

func TestRedisGuardUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	g := NewRedisGuard(rdb, time.Minute, time.Hour)
	mr.Close()

	_, err := g.CheckOrLock(context.Background(), "down", testIntent(t, 100))
	assert.Error(t, err)
}

func TestRedisGuardCorruptRecord(t *testing.T) {
	mr, rdb := newTestRedis(t)
	g := NewRedisGuard(rdb, time.Minute, time.Hour)
	require.NoError(t, mr.Set(redisKeyPrefix+"bad", "{not json"))

	_, err := g.CheckOrLock(context.Background(), "bad", testIntent(t, 100))
	assert.Error(t, err)
}
