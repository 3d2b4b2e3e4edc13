package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ProviderRequestsTotal counts provider calls by outcome (ok, quota, error).
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photocritic",
		Name:      "provider_requests_total",
		Help:      "Total number of AI provider calls, labeled by provider and result.",
	}, []string{"provider", "result"})

	ProviderRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "photocritic",
		Name:      "provider_request_duration_seconds",
		Help:      "Wall time of one AI provider call, including response parsing.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photocritic",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, labeled by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "photocritic",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Current number of HTTP requests being served.",
	})

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "photocritic",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	ImagesResizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "photocritic",
		Name:      "images_resized_total",
		Help:      "Uploads that needed the corrective resize to fit the size bound.",
	})
)

// Register registers all collectors with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ProviderRequestsTotal,
			ProviderRequestDurationSeconds,
			HTTPRequestsTotal,
			HTTPRequestsInFlight,
			HTTPRequestDurationSeconds,
			ImagesResizedTotal,
		)
	})
}
