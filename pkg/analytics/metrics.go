package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// EventsAppended counts events durably written to the ledger, by kind.
	EventsAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptdeck_events_appended_total",
			Help: "Total number of analytics events appended",
		},
		[]string{"kind"},
	)

	// DegradedOps counts operations that hit the best-effort fallback path
	// (write dropped or read answered with its zero value).
	DegradedOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptdeck_degraded_ops_total",
			Help: "Total number of analytics operations that degraded to their fallback",
		},
		[]string{"op"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(EventsAppended)
	prometheus.MustRegister(DegradedOps)
}
