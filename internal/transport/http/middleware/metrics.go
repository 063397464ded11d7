package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics instruments the admin API's request handling. Buckets are tuned
// for handlers whose latency is dominated by a directory round-trip (tens of
// milliseconds) with a long tail for binds against a slow domain controller.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewHTTPMetrics registers the collectors with reg (the default registerer
// when nil). It must be called once per process.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &HTTPMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diradmin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests handled by the admin API, by method, path, and status.",
		}, []string{"method", "path", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "diradmin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency, dominated by the directory round-trip.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path", "status"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "diradmin",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requests currently being handled.",
		}),
	}
}

// Handler returns the instrumenting middleware. Unmatched routes are recorded
// under their raw path so probing noise stays visible without exploding
// registered-route cardinality.
func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		m.inFlight.Inc()

		c.Next()

		m.inFlight.Dec()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.requests.WithLabelValues(method, path, status).Inc()
		m.duration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
	}
}
