package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	ingressRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slime",
			Subsystem: "ingress",
			Name:      "requests_total",
			Help:      "Ingress connections by outcome.",
		},
		[]string{"outcome"},
	)
	ingressDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "slime",
			Subsystem: "ingress",
			Name:      "handle_duration_seconds",
			Help:      "Time from accept to response write.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	egressEffects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slime",
			Subsystem: "egress",
			Name:      "effects_total",
			Help:      "Authorized effects handed to the actuator channel.",
		},
		[]string{"result"},
	)
	dashboardRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slime",
			Subsystem: "dashboard",
			Name:      "http_requests_total",
			Help:      "Dashboard HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ingressRequests, ingressDuration, egressEffects, dashboardRequests)
	})
}

// RecordIngress counts one handled connection. Outcome labels carry no
// request content.
func RecordIngress(outcome string, duration time.Duration) {
	RegisterMetrics()
	ingressRequests.WithLabelValues(outcome).Inc()
	ingressDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func RecordEgress(result string) {
	RegisterMetrics()
	egressEffects.WithLabelValues(result).Inc()
}

func RecordDashboardRequest(method, path string, status int) {
	RegisterMetrics()
	dashboardRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
