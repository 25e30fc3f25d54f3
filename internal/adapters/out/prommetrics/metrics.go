// Package prommetrics implements ports.Metrics with Prometheus collectors.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dispatch collectors. Register them once per registry.
type Metrics struct {
	assignments       *prometheus.CounterVec
	assignmentLatency *prometheus.HistogramVec
	assignmentRetries *prometheus.CounterVec
	ledgerOperations  *prometheus.CounterVec
	notifications     *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "assignments_total",
			Help:      "Assignment attempts by method and outcome",
		}, []string{"method", "outcome"}),
		assignmentLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dispatch",
			Name:      "assignment_duration_seconds",
			Help:      "Time from the first attempt to a definite assignment outcome",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method"}),
		assignmentRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "assignment_retries_total",
			Help:      "Assignment attempts retried after contention",
		}, []string{"reason"}),
		ledgerOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "ledger_operations_total",
			Help:      "Cash ledger operations by outcome",
		}, []string{"operation", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "notifications_total",
			Help:      "Event deliveries by event type and result",
		}, []string{"event", "result"}),
	}
}

// MustRegister adds every collector to r and returns m.
func (m *Metrics) MustRegister(r prometheus.Registerer) *Metrics {
	r.MustRegister(
		m.assignments,
		m.assignmentLatency,
		m.assignmentRetries,
		m.ledgerOperations,
		m.notifications,
	)
	return m
}

func (m *Metrics) ObserveAssignment(method string, outcome string, duration time.Duration) {
	m.assignments.WithLabelValues(method, outcome).Inc()
	m.assignmentLatency.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *Metrics) ObserveAssignmentRetry(reason string) {
	m.assignmentRetries.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveLedger(operation string, outcome string) {
	m.ledgerOperations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveNotification(eventType string, failed bool) {
	result := "delivered"
	if failed {
		result = "failed"
	}
	m.notifications.WithLabelValues(eventType, result).Inc()
}
