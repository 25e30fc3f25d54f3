package notify

import (
	"context"
	"log/slog"

	"dispatch/internal/core/ports"
)

// LogNotifier writes every event to the structured log. It never fails.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "log_notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, event ports.Event) error {
	attrs := []any{
		"event", string(event.Type),
		"order_id", event.OrderID.String(),
		"courier_id", event.CourierID.String(),
		"occurred_at", event.OccurredAt,
	}
	for k, v := range event.Attributes {
		attrs = append(attrs, k, v)
	}
	n.logger.InfoContext(ctx, "Dispatch event", attrs...)
	return nil
}
