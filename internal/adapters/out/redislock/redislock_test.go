package redislock_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dispatch/internal/adapters/out/redislock"
	"dispatch/internal/core/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLocker_TryLock(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	locker := redislock.New(client, redislock.DefaultConfig())

	t.Run("should refuse a held key and allow it after unlock", func(t *testing.T) {
		key := ports.OrderLockKey(uuid.NewString())

		unlock, err := locker.TryLock(ctx, key)
		require.NoError(t, err)

		_, err = locker.TryLock(ctx, key)
		require.ErrorIs(t, err, ports.ErrLockHeld)

		require.NoError(t, unlock(ctx))
		require.NoError(t, unlock(ctx), "second unlock is a no-op")

		again, err := locker.TryLock(ctx, key)
		require.NoError(t, err)
		require.NoError(t, again(ctx))
	})

	t.Run("should not release a lease taken over by another owner", func(t *testing.T) {
		key := ports.CourierLockKey(uuid.NewString())
		short := redislock.New(client, redislock.Config{Lease: 50 * time.Millisecond})

		stale, err := short.TryLock(ctx, key)
		require.NoError(t, err)
		time.Sleep(120 * time.Millisecond)

		current, err := locker.TryLock(ctx, key)
		require.NoError(t, err)

		require.NoError(t, stale(ctx))
		_, err = locker.TryLock(ctx, key)
		assert.ErrorIs(t, err, ports.ErrLockHeld, "stale owner must not delete the new lease")

		require.NoError(t, current(ctx))
	})
}

func TestLocker_Lock(t *testing.T) {
	client := getRedisClient(t)
	locker := redislock.New(client, redislock.Config{
		PollInterval:    time.Millisecond,
		MaxPollInterval: 5 * time.Millisecond,
	})

	t.Run("should serialize holders of one key", func(t *testing.T) {
		ctx := context.Background()
		key := ports.CourierLockKey(uuid.NewString())

		var inside, maxInside atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, key)
				if err != nil {
					return
				}
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				time.Sleep(2 * time.Millisecond)
				inside.Add(-1)
				_ = unlock(ctx)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), maxInside.Load())
	})

	t.Run("should give up when the context ends", func(t *testing.T) {
		key := ports.OrderLockKey(uuid.NewString())
		unlock, err := locker.TryLock(context.Background(), key)
		require.NoError(t, err)
		defer func() { _ = unlock(context.Background()) }()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_, err = locker.Lock(ctx, key)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
