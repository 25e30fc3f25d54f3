package keylock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dispatch/internal/adapters/out/keylock"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_TryLock(t *testing.T) {
	t.Run("should refuse a held key and accept it after unlock", func(t *testing.T) {
		l := keylock.New()
		ctx := t.Context()

		unlock, err := l.TryLock(ctx, "order:1")
		require.NoError(t, err)

		_, err = l.TryLock(ctx, "order:1")
		require.ErrorIs(t, err, ports.ErrLockHeld)

		other, err := l.TryLock(ctx, "order:2")
		require.NoError(t, err)
		require.NoError(t, other(ctx))

		require.NoError(t, unlock(ctx))
		require.NoError(t, unlock(ctx), "second unlock is a no-op")

		again, err := l.TryLock(ctx, "order:1")
		require.NoError(t, err)
		require.NoError(t, again(ctx))
		assert.Zero(t, l.Len())
	})
}

func TestLocker_Lock(t *testing.T) {
	t.Run("should serialize holders of the same key", func(t *testing.T) {
		l := keylock.New()
		ctx := t.Context()

		var inside, maxInside atomic.Int32
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := l.Lock(ctx, "courier:1")
				if !assert.NoError(t, err) {
					return
				}
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				_ = unlock(ctx)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), maxInside.Load())
		assert.Zero(t, l.Len())
	})

	t.Run("should give up when the context ends", func(t *testing.T) {
		l := keylock.New()
		unlock, err := l.Lock(t.Context(), "courier:1")
		require.NoError(t, err)
		defer func() { _ = unlock(context.Background()) }()

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		_, err = l.Lock(ctx, "courier:1")

		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
