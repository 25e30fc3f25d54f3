package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

const outcomeSuccess = "success"

// publish hands a committed change to the notifier. A failure is logged and
// counted, the change itself stands.
func publish(ctx context.Context, notifier ports.Notifier, metrics ports.Metrics, logger *slog.Logger, event ports.Event) {
	err := notifier.Notify(context.WithoutCancel(ctx), event)
	metrics.ObserveNotification(string(event.Type), err != nil)
	if err != nil {
		logger.WarnContext(ctx, "Notification failed",
			"event", event.Type, "order_id", event.OrderID.String(), "error", err)
	}
}

// outcomeOf labels err for metrics: success, a business error code or "error".
func outcomeOf(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	if code, ok := errs.CodeOf(err); ok {
		return string(code)
	}
	return "error"
}
