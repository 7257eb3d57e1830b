package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "medhealth"

// Collector groups every metric the server exports. All methods are safe to
// call on a nil *Collector, which records nothing.
type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	WSConnections *prometheus.GaugeVec
	FramesPushed  *prometheus.CounterVec

	ResourcesMappedTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewCollector registers the server metrics with reg. Pass
// prometheus.NewRegistry() in tests to avoid duplicate registration panics.
func NewCollector(reg *prometheus.Registry) *Collector {
	f := promauto.With(reg)
	return &Collector{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path"}),

		WSConnections: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Open push connections by feed.",
		}, []string{"feed"}),

		FramesPushed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "ws",
			Name:      "frames_pushed_total",
			Help:      "Resource batches written to push connections by feed.",
		}, []string{"feed"}),

		ResourcesMappedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "resources_mapped_total",
			Help:      "Interchange resources produced from stored rows.",
		}, []string{"resource_type"}),

		gatherer: reg,
	}
}

func (c *Collector) ObserveRequest(method, path, status string, seconds float64) {
	if c == nil {
		return
	}
	c.RequestsTotal.WithLabelValues(method, path, status).Inc()
	c.RequestDuration.WithLabelValues(method, path).Observe(seconds)
}

func (c *Collector) ResourcesMapped(resourceType string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.ResourcesMappedTotal.WithLabelValues(resourceType).Add(float64(n))
}

func (c *Collector) ConnectionOpened(feed string) {
	if c == nil {
		return
	}
	c.WSConnections.WithLabelValues(feed).Inc()
}

func (c *Collector) ConnectionClosed(feed string) {
	if c == nil {
		return
	}
	c.WSConnections.WithLabelValues(feed).Dec()
}

func (c *Collector) FramePushed(feed string) {
	if c == nil {
		return
	}
	c.FramesPushed.WithLabelValues(feed).Inc()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
