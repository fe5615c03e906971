package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arbchain",
		Subsystem: "gateway",
		Name:      "operations_total",
		Help:      "Write and read operations processed, by operation and outcome.",
	}, []string{"operation", "outcome"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arbchain",
		Subsystem: "core",
		Name:      "events_total",
		Help:      "Dispute lifecycle events emitted, by event type.",
	}, []string{"type"})
)

func recordOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}
