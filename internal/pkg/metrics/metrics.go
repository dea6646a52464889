package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meteomcp",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meteomcp",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Location cache metrics, labelled by backend (file, valkey, postgres).
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meteomcp",
		Subsystem: "location_cache",
		Name:      "hits_total",
		Help:      "Location lookups served from the cache",
	}, []string{"backend"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meteomcp",
		Subsystem: "location_cache",
		Name:      "misses_total",
		Help:      "Location lookups that went to the geocoding provider",
	}, []string{"backend"})

	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meteomcp",
		Subsystem: "location_cache",
		Name:      "errors_total",
		Help:      "Cache backend failures, by operation",
	}, []string{"backend", "operation"})

	// Upstream provider metrics
	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meteomcp",
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls to external providers",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"provider"})

	ProviderResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meteomcp",
		Subsystem: "provider",
		Name:      "responses_total",
		Help:      "Responses from external providers by status code",
	}, []string{"provider", "status"})

	// Resolutions counts provider lookups by the disambiguation rule that won.
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meteomcp",
		Subsystem: "geocoding",
		Name:      "resolutions_total",
		Help:      "Locations resolved through the provider, by selection rule",
	}, []string{"rule"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "meteomcp",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "meteomcp",
		Subsystem: "auth",
		Name:      "failures_total",
		Help:      "Requests rejected for a missing or invalid bearer token",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Response().StatusCode())).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
