// Package keylock implements ports.Locker inside a single process with one
// weighted semaphore per key. Entries are reference counted and removed once
// nobody holds or waits for them, so the map does not grow with every order.
package keylock

import (
	"context"
	"fmt"
	"sync"

	"dispatch/internal/core/ports"

	"golang.org/x/sync/semaphore"
)

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Locker is safe for concurrent use. The zero value is not usable, use New.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *Locker {
	return &Locker{locks: make(map[string]*entry)}
}

// TryLock acquires key or fails immediately with ports.ErrLockHeld.
func (l *Locker) TryLock(_ context.Context, key string) (ports.Unlock, error) {
	e := l.ref(key)
	if !e.sem.TryAcquire(1) {
		l.unref(key, e)
		return nil, fmt.Errorf("%s: %w", key, ports.ErrLockHeld)
	}
	return l.unlocker(key, e), nil
}

// Lock waits for key until ctx is done.
func (l *Locker) Lock(ctx context.Context, key string) (ports.Unlock, error) {
	e := l.ref(key)
	if err := e.sem.Acquire(ctx, 1); err != nil {
		l.unref(key, e)
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	return l.unlocker(key, e), nil
}

// Len returns the number of keys currently held or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *Locker) unlocker(key string, e *entry) ports.Unlock {
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			e.sem.Release(1)
			l.unref(key, e)
		})
		return nil
	}
}

func (l *Locker) ref(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

var _ ports.Locker = (*Locker)(nil)
