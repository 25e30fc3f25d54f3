package notify

import (
	"context"
	"errors"
	"fmt"

	"dispatch/internal/core/ports"
)

// Fanout hands each event to every target in order. A failing target does
// not stop the others; their errors are joined.
type Fanout struct {
	targets []namedNotifier
	metrics ports.Metrics
}

type namedNotifier struct {
	name string
	ports.Notifier
}

func NewFanout(metrics ports.Metrics) *Fanout {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Fanout{metrics: metrics}
}

// Add registers a target under a name used in error messages.
func (f *Fanout) Add(name string, n ports.Notifier) *Fanout {
	f.targets = append(f.targets, namedNotifier{name: name, Notifier: n})
	return f
}

func (f *Fanout) Len() int {
	return len(f.targets)
}

func (f *Fanout) Notify(ctx context.Context, event ports.Event) error {
	var errs []error
	for _, t := range f.targets {
		err := t.Notify(ctx, event)
		f.metrics.ObserveNotification(string(event.Type), err != nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
		}
	}
	return errors.Join(errs...)
}
