package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"dispatch/internal/core/ports"
)

var (
	ErrQueueFull = errors.New("notification queue is full")
	ErrClosed    = errors.New("notifier is closed")
)

// Async decouples callers from slow targets: Notify only enqueues, a single
// worker delivers in order and logs failures. A full queue drops the event
// and reports ErrQueueFull rather than blocking the assignment path.
type Async struct {
	next   ports.Notifier
	logger *slog.Logger
	queue  chan queued
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

type queued struct {
	ctx   context.Context
	event ports.Event
}

func NewAsync(next ports.Notifier, size int, logger *slog.Logger) *Async {
	if size < 1 {
		size = 1
	}
	a := &Async{
		next:   next,
		logger: logger.With("component", "async_notifier"),
		queue:  make(chan queued, size),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) Notify(ctx context.Context, event ports.Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	select {
	case a.queue <- queued{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits until the queue is drained or ctx ends.
func (a *Async) Close(ctx context.Context) error {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()
	})

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) run() {
	defer close(a.done)
	for item := range a.queue {
		if err := a.next.Notify(item.ctx, item.event); err != nil {
			a.logger.Warn("Event delivery failed",
				"event", string(item.event.Type),
				"order_id", item.event.OrderID.String(),
				"error", err)
		}
	}
}
