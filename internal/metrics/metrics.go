package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics bundles the Prometheus collectors that track the HTTP surface
// of a service.
type HTTPMetrics struct {
	requestCounter    *prometheus.CounterVec
	errorCounter      *prometheus.CounterVec
	durationHistogram *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP collectors for the named service on the
// default Prometheus registry. The default registry rejects duplicates, so
// call this once per process.
func NewHTTPMetrics(service string) *HTTPMetrics {
	constLabels := prometheus.Labels{"service": service}

	return &HTTPMetrics{
		requestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "api_requests_total",
				Help:        "Total number of API requests",
				ConstLabels: constLabels,
			},
			[]string{"method", "path"},
		),
		errorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "api_errors_total",
				Help:        "Total number of API errors",
				ConstLabels: constLabels,
			},
			[]string{"method", "path", "status"},
		),
		durationHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "Duration of HTTP requests in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{"method", "path", "status"},
		),
	}
}

// Middleware tracks request counts, errors and latencies. Requests are
// labelled with the route pattern rather than the raw URL so that the label
// cardinality stays bounded.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		// Track API request count
		m.requestCounter.With(prometheus.Labels{
			"method": c.Request.Method,
			"path":   path,
		}).Inc()

		// Process the request
		c.Next()

		// Track request duration
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		m.durationHistogram.With(prometheus.Labels{
			"method": c.Request.Method,
			"path":   path,
			"status": status,
		}).Observe(duration)

		// Track errors
		if c.Writer.Status() >= 400 {
			m.errorCounter.With(prometheus.Labels{
				"method": c.Request.Method,
				"path":   path,
				"status": status,
			}).Inc()
		}
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
