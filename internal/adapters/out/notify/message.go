// Package notify delivers dispatch events to the outside world. Every
// notifier implements ports.Notifier; Fanout and Async compose them.
package notify

import (
	"encoding/json"
	"time"

	"dispatch/internal/core/ports"
)

// Message is the wire form of a ports.Event shared by the Redis and Postgres
// notifiers.
type Message struct {
	Type       string            `json:"type"`
	OrderID    string            `json:"orderId"`
	CourierID  string            `json:"courierId"`
	OccurredAt time.Time         `json:"occurredAt"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func NewMessage(event ports.Event) Message {
	return Message{
		Type:       string(event.Type),
		OrderID:    event.OrderID.String(),
		CourierID:  event.CourierID.String(),
		OccurredAt: event.OccurredAt.UTC(),
		Attributes: event.Attributes,
	}
}

func encode(event ports.Event) ([]byte, error) {
	return json.Marshal(NewMessage(event))
}
