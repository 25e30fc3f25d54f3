// Package redislock implements ports.Locker on Redis so that several dispatch
// instances share the order and courier locks.
//
// A lock is a key set with SET NX and a lease. The value is a random token and
// only the holder of that token can delete it, so a lease that expired and was
// taken over is never released by the previous owner.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dispatch/internal/core/ports"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dispatch:lock:"

var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type Config struct {
	// Lease bounds how long a crashed holder can keep a key.
	Lease time.Duration
	// PollInterval is the first wait between attempts of Lock.
	PollInterval time.Duration
	// MaxPollInterval caps the exponential wait of Lock.
	MaxPollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Lease:           30 * time.Second,
		PollInterval:    10 * time.Millisecond,
		MaxPollInterval: 200 * time.Millisecond,
	}
}

type Locker struct {
	client redis.UniversalClient
	cfg    Config
}

func New(client redis.UniversalClient, cfg Config) *Locker {
	def := DefaultConfig()
	if cfg.Lease <= 0 {
		cfg.Lease = def.Lease
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.MaxPollInterval < cfg.PollInterval {
		cfg.MaxPollInterval = cfg.PollInterval
	}
	return &Locker{client: client, cfg: cfg}
}

// TryLock makes a single SET NX attempt.
func (l *Locker) TryLock(ctx context.Context, key string) (ports.Unlock, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, keyPrefix+key, token, l.cfg.Lease).Result()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ports.ErrLockHeld)
	}
	return l.unlocker(key, token), nil
}

// Lock polls with exponential backoff until the key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string) (ports.Unlock, error) {
	var unlock ports.Unlock
	op := func() error {
		u, err := l.TryLock(ctx, key)
		if err == nil {
			unlock = u
			return nil
		}
		if errors.Is(err, ports.ErrLockHeld) {
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.cfg.PollInterval
	b.MaxInterval = l.cfg.MaxPollInterval
	b.MaxElapsedTime = 0

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, ctxErr)
		}
		return nil, err
	}
	return unlock, nil
}

func (l *Locker) unlocker(key, token string) ports.Unlock {
	var once sync.Once
	var err error
	return func(ctx context.Context) error {
		once.Do(func() {
			// A cancelled request must still free its lock.
			ctx = context.WithoutCancel(ctx)
			if runErr := releaseScript.Run(ctx, l.client, []string{keyPrefix + key}, token).Err(); runErr != nil {
				err = fmt.Errorf("unlock %s: %w", key, runErr)
			}
		})
		return err
	}
}
