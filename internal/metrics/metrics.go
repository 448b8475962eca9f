package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "homebook",
			Name:      "booking_submissions_total",
			Help:      "Count of booking submissions by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	cancellations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "homebook",
			Name:      "booking_cancellations_total",
			Help:      "Count of bookings cancelled by customers.",
		},
	)

	backendCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "homebook",
			Name:      "backend_calls_total",
			Help:      "Count of calls to the booking backend by endpoint.",
		},
		[]string{"endpoint"},
	)

	gateRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "homebook",
			Name:      "gate_rejections_total",
			Help:      "Count of submissions blocked locally before reaching the backend.",
		},
		[]string{"reason"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(submissions, cancellations, backendCalls, gateRejections)
	})
}

func IncSubmission(kind, outcome string) {
	submissions.WithLabelValues(kind, outcome).Inc()
}

func IncCancellation() {
	cancellations.Inc()
}

func IncBackendCall(endpoint string) {
	backendCalls.WithLabelValues(endpoint).Inc()
}

func IncGateRejection(reason string) {
	gateRejections.WithLabelValues(reason).Inc()
}
