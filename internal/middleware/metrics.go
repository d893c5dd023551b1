package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frogcom_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "frogcom_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	orchestrationRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "frogcom_orchestration_rounds_executed",
		Help:    "Refinement rounds executed per generate request.",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 8, 10},
	})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frogcom_generation_failures_total",
		Help: "Generate requests that failed, by kind.",
	}, []string{"kind"})
)

// Metrics records request counts and latency per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}

// ObserveOrchestration records the executed round count for one request.
func ObserveOrchestration(rounds int) {
	orchestrationRounds.Observe(float64(rounds))
}

// CountGenerationFailure counts a failed generate request.
func CountGenerationFailure(kind string) {
	generationFailures.WithLabelValues(kind).Inc()
}
