package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector defines the interface for metrics collection
type Collector interface {
	// Connection metrics
	ConnectionOpened()
	ConnectionClosed()

	// Signaling metrics
	SignalRelayed(kind string, delivered, dropped int)

	// Provider metrics
	RequestRejected(kind string)
	RequestCompleted(kind, outcome string, d time.Duration)
	SynthesisCompleted(outcome string, d time.Duration, sizeBytes int)

	// Handler returns an HTTP handler for metrics endpoint
	Handler() http.Handler
}

// PrometheusCollector implements the Collector interface using Prometheus
type PrometheusCollector struct {
	registry *prometheus.Registry

	activeConnections prometheus.Gauge
	connections       prometheus.Counter

	signalsRelayed *prometheus.CounterVec
	signalsDropped *prometheus.CounterVec

	requestsRejected *prometheus.CounterVec
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec

	synthesis         *prometheus.CounterVec
	synthesisDuration prometheus.Histogram
	synthesisBytes    prometheus.Histogram
}

// NewPrometheusCollector creates a collector backed by its own registry so
// several instances can coexist in one process.
func NewPrometheusCollector() *PrometheusCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &PrometheusCollector{
		registry: reg,

		activeConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "assist_active_connections",
			Help: "Number of open real-time connections",
		}),
		connections: f.NewCounter(prometheus.CounterOpts{
			Name: "assist_connections_total",
			Help: "Total number of real-time connections accepted",
		}),

		signalsRelayed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_signals_relayed_total",
				Help: "Signaling frames delivered to peers",
			},
			[]string{"kind"},
		),
		signalsDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_signals_dropped_total",
				Help: "Signaling frames that could not be queued for a peer",
			},
			[]string{"kind"},
		),

		requestsRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_requests_rejected_total",
				Help: "Multimodal requests rejected before reaching a provider",
			},
			[]string{"kind"},
		),
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_requests_total",
				Help: "Multimodal requests handled by a provider",
			},
			[]string{"kind", "outcome"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assist_request_duration_seconds",
				Help:    "Provider round trip time for multimodal requests",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
			},
			[]string{"kind"},
		),

		synthesis: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_synthesis_total",
				Help: "Speech synthesis requests",
			},
			[]string{"outcome"},
		),
		synthesisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "assist_synthesis_duration_seconds",
			Help:    "Speech synthesis round trip time",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		}),
		synthesisBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "assist_synthesis_audio_bytes",
			Help:    "Size of synthesized audio",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB to 16MiB
		}),
	}
}

func (c *PrometheusCollector) ConnectionOpened() {
	c.connections.Inc()
	c.activeConnections.Inc()
}

func (c *PrometheusCollector) ConnectionClosed() {
	c.activeConnections.Dec()
}

func (c *PrometheusCollector) SignalRelayed(kind string, delivered, dropped int) {
	c.signalsRelayed.WithLabelValues(kind).Add(float64(delivered))
	c.signalsDropped.WithLabelValues(kind).Add(float64(dropped))
}

func (c *PrometheusCollector) RequestRejected(kind string) {
	c.requestsRejected.WithLabelValues(kind).Inc()
}

func (c *PrometheusCollector) RequestCompleted(kind, outcome string, d time.Duration) {
	c.requests.WithLabelValues(kind, outcome).Inc()
	c.requestDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (c *PrometheusCollector) SynthesisCompleted(outcome string, d time.Duration, sizeBytes int) {
	c.synthesis.WithLabelValues(outcome).Inc()
	c.synthesisDuration.Observe(d.Seconds())
	if sizeBytes > 0 {
		c.synthesisBytes.Observe(float64(sizeBytes))
	}
}

// Handler returns an HTTP handler for metrics endpoint
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
