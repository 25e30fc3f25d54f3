package ports

import (
	"context"
	"errors"
)

// ErrLockHeld is returned by TryLock when another holder owns the key.
var ErrLockHeld = errors.New("lock is held by another owner")

// Unlock releases a lock obtained from a Locker. Calling it twice is safe.
type Unlock func(ctx context.Context) error

// Locker provides named exclusive locks. Keys follow "<aggregate>:<id>",
// e.g. "order:<uuid>" for assignment and "courier:<uuid>" for the cash ledger.
type Locker interface {
	// TryLock acquires key without waiting or fails with ErrLockHeld.
	TryLock(ctx context.Context, key string) (Unlock, error)

	// Lock waits for key until ctx is done.
	Lock(ctx context.Context, key string) (Unlock, error)
}

func OrderLockKey(id string) string {
	return "order:" + id
}

func CourierLockKey(id string) string {
	return "courier:" + id
}
