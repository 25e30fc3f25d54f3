package ports

import "time"

// Metrics records use case outcomes. Outcome is "success" or a business error code.
type Metrics interface {
	ObserveAssignment(method string, outcome string, duration time.Duration)
	ObserveAssignmentRetry(reason string)
	ObserveLedger(operation string, outcome string)
	ObserveNotification(eventType string, failed bool)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObserveAssignment(string, string, time.Duration) {}
func (NopMetrics) ObserveAssignmentRetry(string)                   {}
func (NopMetrics) ObserveLedger(string, string)                    {}
func (NopMetrics) ObserveNotification(string, bool)                {}
