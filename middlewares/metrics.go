package middlewares

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/restaurant-reservation/booking"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// BookingOutcomes counts reservation decisions by operation and result.
	BookingOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_decisions_total",
			Help: "Reservation create/update/cancel outcomes",
		},
		[]string{"op", "result"},
	)

	registerOnce sync.Once
)

// RegisterMetrics registers the collectors with the default registry. Safe
// to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDurationHistogram, BookingOutcomes)
	})
}

// Metrics records request counts and latency keyed by route template.
func Metrics() gin.HandlerFunc {
	RegisterMetrics()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		RequestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
		RequestDurationHistogram.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveBooking is a booking.Policy OnDecision hook.
func ObserveBooking(op string, err error) {
	BookingOutcomes.WithLabelValues(op, booking.Reason(err)).Inc()
}

func MetricsHandler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}
