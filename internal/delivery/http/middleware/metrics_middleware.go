package middleware

import (
	"net/http"
	"strconv"
	"time"

	domainerrors "passport/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsMiddleware records per-request Prometheus metrics and exposes the
// scrape endpoint.
type MetricsMiddleware struct {
	registry      *prometheus.Registry
	requestsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewMetricsMiddleware creates a middleware with its own registry so the
// process-wide default collectors stay untouched.
func NewMetricsMiddleware() *MetricsMiddleware {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "passport_http_requests_total",
		Help: "Total number of HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "passport_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	registry.MustRegister(requestsTotal, duration)

	return &MetricsMiddleware{
		registry:      registry,
		requestsTotal: requestsTotal,
		duration:      duration,
	}
}

// Handle observes the request outcome. The route path is used instead of the
// raw URL so parameterized routes share a single series.
func (m *MetricsMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		path := c.Path()
		if path == "" {
			path = c.Request().URL.Path
		}

		// The error handler runs after this middleware returns, so the
		// response status is not yet set on the error path.
		status := c.Response().Status
		if err != nil {
			var appErr domainerrors.AppError
			var httpErr *echo.HTTPError
			switch {
			case errors.As(err, &appErr):
				status = appErr.HTTPCode()
			case errors.As(err, &httpErr):
				status = httpErr.Code
			default:
				status = http.StatusInternalServerError
			}
		}

		m.requestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler serves the scrape endpoint for this middleware's registry.
func (m *MetricsMiddleware) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
