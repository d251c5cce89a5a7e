package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/solawi/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Login attempts by result (success or failure). Watch for: failure bursts (credential stuffing).
	LoginAttemptsTotal *prometheus.CounterVec

	// Bank statement lines by outcome (imported, skipped). Watch for: imports that only skip.
	DepositsImportedTotal *prometheus.CounterVec

	// Payment status cache lookups by result (hit, miss, error).
	PaymentStatusCacheTotal *prometheus.CounterVec

	// Cache backend errors by operation (get, set, delete).
	CacheErrorsTotal *prometheus.CounterVec

	// Share merges performed.
	SharesMergedTotal prometheus.Counter

	// Rate limit denials. Watch for: overload, brute-force attempts on login.
	RateLimitDeniedTotal prometheus.Counter

	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loginAttemptsTotal",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)
	DepositsImportedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositsImportedTotal",
			Help: "Bank statement transactions processed by outcome",
		},
		[]string{"outcome"},
	)
	PaymentStatusCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paymentStatusCacheTotal",
			Help: "Payment status cache lookups by result",
		},
		[]string{"result"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Cache backend errors by operation",
		},
		[]string{"operation"},
	)
	SharesMergedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sharesMergedTotal",
			Help: "Total number of share merges",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		LoginAttemptsTotal, DepositsImportedTotal,
		PaymentStatusCacheTotal, CacheErrorsTotal,
		SharesMergedTotal, RateLimitDeniedTotal,
	)
}

// RegisterRateLimitGauges registers load and rejects gauges for the sliding window used by
// the health check. Call from main after config load.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "requestsInWindow",
					Help: "Requests recorded in the sliding health window",
				},
				func() float64 { return float64(traffic.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window; are we rejecting requests",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
		)
	})
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
