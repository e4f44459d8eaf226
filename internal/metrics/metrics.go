package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "behavior_tracker",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "behavior_tracker",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "behavior_tracker",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	notificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "behavior_tracker",
			Subsystem: "notifications",
			Name:      "created_total",
			Help:      "Notifications created by fan-out, by notification type.",
		},
		[]string{"type"},
	)

	fanOutFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "behavior_tracker",
			Subsystem: "notifications",
			Name:      "fanout_failures_total",
			Help:      "Fan-out attempts that were swallowed after the primary write succeeded.",
		},
		[]string{"workflow"},
	)

	sessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "behavior_tracker",
			Subsystem: "sessions",
			Name:      "started_total",
			Help:      "Sessions created by successful logins.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		notificationsCreated,
		fanOutFailures,
		sessionsStarted,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// Middleware records in-flight, count and latency per route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RecordNotification counts a created notification.
func RecordNotification(kind string) {
	notificationsCreated.WithLabelValues(kind).Inc()
}

// RecordFanOutFailure counts a swallowed fan-out error.
func RecordFanOutFailure(workflow string) {
	fanOutFailures.WithLabelValues(workflow).Inc()
}

// RecordSessionStarted counts a login.
func RecordSessionStarted() {
	sessionsStarted.Inc()
}
