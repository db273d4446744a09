package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_http_requests_total",
		Help: "HTTP requests processed, partitioned by method, route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lms_http_request_duration_seconds",
		Help:    "HTTP request latency distribution.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	storeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_store_operations_total",
		Help: "State manager operations, partitioned by operation and outcome.",
	}, []string{"operation", "outcome"})
)

// Middleware collects request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveOperation records the outcome of a state manager operation.
func ObserveOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storeOperations.WithLabelValues(operation, outcome).Inc()
}

// RegisterCatalogGauges exposes live catalog and progress counts. The count
// funcs are polled on scrape.
func RegisterCatalogGauges(courseCount, progressCount func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lms_catalog_courses",
		Help: "Number of courses currently in the catalog.",
	}, func() float64 { return float64(courseCount()) })

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lms_progress_records",
		Help: "Number of (user, course) progress records.",
	}, func() float64 { return float64(progressCount()) })
}
