package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// EventType names something that happened to an order.
type EventType string

const (
	EventOrderAssigned EventType = "order.assigned"
	EventOrderReleased EventType = "order.released"
	EventCODCompleted  EventType = "cod.completed"
)

// Event is published after the change it describes has been committed.
type Event struct {
	Type       EventType
	OrderID    kernel.UUID
	CourierID  kernel.UUID
	OccurredAt time.Time
	Attributes map[string]string
}

// Notifier informs external parties. Callers treat it as fire and forget:
// an error is logged and never undoes the committed change.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}
