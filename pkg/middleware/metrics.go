package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/sentinel-ask/pkg/observability/metrics"
)

// MetricsConfig defines the config for Metrics middleware.
type MetricsConfig struct {
	// Registry receives the HTTP metrics. Required.
	Registry *metrics.Registry
	// Namespace prefixes every metric name.
	Namespace string
	// SkipPaths is a list of paths that are not measured.
	SkipPaths []string
}

// MetricsWithConfig returns a middleware that counts requests and observes
// their latency, labelled by method, matched route and status.
// It panics if the metric names are already registered in config.Registry.
func MetricsWithConfig(config MetricsConfig) gin.HandlerFunc {
	prefix := "http"
	if config.Namespace != "" {
		prefix = config.Namespace + "_http"
	}

	requests := metrics.NewCounterVec(prefix+"_requests_total", "Total number of HTTP requests.")
	duration := metrics.NewHistogramVec(prefix+"_request_duration_seconds",
		"HTTP request duration in seconds.", metrics.DefaultBuckets)
	active := metrics.NewGauge(prefix+"_requests_active", "Current number of active requests.")
	config.Registry.MustRegister(requests, duration, active)

	skipPaths := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		active.Inc()
		start := time.Now()
		c.Next()
		active.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := map[string]string{
			"method": c.Request.Method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}
		requests.With(labels).Inc()
		duration.With(labels).Observe(time.Since(start).Seconds())
	}
}

// RegisterMetricsRoutes serves reg in Prometheus text format at path.
func RegisterMetricsRoutes(r gin.IRoutes, path string, reg *metrics.Registry) {
	if path == "" {
		path = "/metrics"
	}
	r.GET(path, func(c *gin.Context) {
		c.Data(http.StatusOK, metrics.ContentType, []byte(reg.Export()))
	})
}
