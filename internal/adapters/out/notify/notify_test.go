package notify_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/testutil/testlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignedEvent() ports.Event {
	return ports.Event{
		Type:       ports.EventOrderAssigned,
		OrderID:    kernel.NewUUID(),
		CourierID:  kernel.NewUUID(),
		OccurredAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Attributes: map[string]string{"method": "Auto"},
	}
}

type recordingTarget struct {
	mu     sync.Mutex
	events []ports.Event
	err    error
}

func (r *recordingTarget) Notify(_ context.Context, event ports.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingTarget) received() []ports.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.Event(nil), r.events...)
}

type notificationMetrics struct {
	ports.NopMetrics
	mu     sync.Mutex
	failed map[bool]int
}

func (m *notificationMetrics) ObserveNotification(_ string, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed == nil {
		m.failed = map[bool]int{}
	}
	m.failed[failed]++
}

func TestLogNotifier_Notify(t *testing.T) {
	t.Run("should log the event with its attributes", func(t *testing.T) {
		logs := testlog.New()
		event := assignedEvent()

		err := notify.NewLogNotifier(logs.Logger()).Notify(context.Background(), event)

		require.NoError(t, err)
		entries := logs.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, slog.LevelInfo, entries[0].Level)
		assert.Equal(t, "Dispatch event", entries[0].Msg)
		assert.Equal(t, "order.assigned", entries[0].Attrs["event"])
		assert.Equal(t, event.OrderID.String(), entries[0].Attrs["order_id"])
		assert.Equal(t, "Auto", entries[0].Attrs["method"])
		assert.Equal(t, "log_notifier", entries[0].Attrs["component"])
	})
}

func TestNewMessage(t *testing.T) {
	t.Run("should carry ids as strings and time in UTC", func(t *testing.T) {
		event := assignedEvent()
		event.OccurredAt = event.OccurredAt.In(time.FixedZone("EET", 2*60*60))

		msg := notify.NewMessage(event)

		assert.Equal(t, "order.assigned", msg.Type)
		assert.Equal(t, event.OrderID.String(), msg.OrderID)
		assert.Equal(t, event.CourierID.String(), msg.CourierID)
		assert.Equal(t, time.UTC, msg.OccurredAt.Location())
	})
}

func TestFanout_Notify(t *testing.T) {
	t.Run("should deliver to every target even when one fails", func(t *testing.T) {
		broken := &recordingTarget{err: errors.New("connection refused")}
		healthy := &recordingTarget{}
		metrics := &notificationMetrics{}
		fanout := notify.NewFanout(metrics).Add("redis", broken).Add("log", healthy)

		err := fanout.Notify(context.Background(), assignedEvent())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis: connection refused")
		assert.Len(t, broken.received(), 1)
		assert.Len(t, healthy.received(), 1)
		assert.Equal(t, 1, metrics.failed[true])
		assert.Equal(t, 1, metrics.failed[false])
		assert.Equal(t, 2, fanout.Len())
	})

	t.Run("should succeed without targets", func(t *testing.T) {
		assert.NoError(t, notify.NewFanout(nil).Notify(context.Background(), assignedEvent()))
	})
}

type blockingTarget struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingTarget) Notify(context.Context, ports.Event) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func TestAsync(t *testing.T) {
	t.Run("should deliver in order and drain on close", func(t *testing.T) {
		target := &recordingTarget{}
		async := notify.NewAsync(target, 16, slog.New(slog.DiscardHandler))

		events := []ports.Event{assignedEvent(), assignedEvent(), assignedEvent()}
		for _, e := range events {
			require.NoError(t, async.Notify(context.Background(), e))
		}
		require.NoError(t, async.Close(context.Background()))

		got := target.received()
		require.Len(t, got, 3)
		for i := range events {
			assert.Equal(t, events[i].OrderID, got[i].OrderID)
		}
		assert.ErrorIs(t, async.Notify(context.Background(), assignedEvent()), notify.ErrClosed)
	})

	t.Run("should not be affected by the caller cancelling its context", func(t *testing.T) {
		target := &recordingTarget{}
		async := notify.NewAsync(target, 4, slog.New(slog.DiscardHandler))
		ctx, cancel := context.WithCancel(context.Background())

		require.NoError(t, async.Notify(ctx, assignedEvent()))
		cancel()
		require.NoError(t, async.Close(context.Background()))

		assert.Len(t, target.received(), 1)
	})

	t.Run("should reject events when the queue is full", func(t *testing.T) {
		target := &blockingTarget{started: make(chan struct{}), release: make(chan struct{})}
		async := notify.NewAsync(target, 1, slog.New(slog.DiscardHandler))

		require.NoError(t, async.Notify(context.Background(), assignedEvent()))
		<-target.started
		require.NoError(t, async.Notify(context.Background(), assignedEvent()))

		err := async.Notify(context.Background(), assignedEvent())

		assert.ErrorIs(t, err, notify.ErrQueueFull)
		close(target.release)
		require.NoError(t, async.Close(context.Background()))
	})

	t.Run("should log failed deliveries", func(t *testing.T) {
		logs := testlog.New()
		async := notify.NewAsync(&recordingTarget{err: errors.New("timeout")}, 4, logs.Logger())

		require.NoError(t, async.Notify(context.Background(), assignedEvent()))
		require.NoError(t, async.Close(context.Background()))

		assert.True(t, logs.Has(slog.LevelWarn, "Event delivery failed"))
	})
}
