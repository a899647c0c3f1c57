package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/flowmap/pkg/observability"
)

// Metrics exports pipeline, cache and HTTP activity to Prometheus. It
// implements every observability hook interface. Each Metrics owns its
// registry, so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec

	graphNodes  prometheus.Gauge
	graphEdges  prometheus.Gauge
	dropped     *prometheus.CounterVec
	activations *prometheus.CounterVec
	layoutTime  *prometheus.HistogramVec
	renderTime  *prometheus.HistogramVec
	stageErrors *prometheus.CounterVec

	cacheEvents *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them, together with the
// Go runtime and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmap_http_requests_total",
				Help: "Number of HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowmap_http_request_duration_seconds",
				Help:    "Time taken to serve HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		requestErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmap_http_errors_total",
				Help: "Number of HTTP requests answered with an error.",
			},
			[]string{"method", "route"},
		),
		graphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowmap_graph_nodes",
			Help: "Applications in the last built graph.",
		}),
		graphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowmap_graph_edges",
			Help: "Flows in the last built graph.",
		}),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmap_dropped_total",
				Help: "Elements removed by the reference filter.",
			},
			[]string{"kind"},
		),
		activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmap_activations_total",
				Help: "Full views activated, by whether the layout came from the cache.",
			},
			[]string{"layout_cached"},
		),
		layoutTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowmap_layout_duration_seconds",
				Help:    "Time taken to activate and settle a view.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"view"},
		),
		renderTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowmap_render_duration_seconds",
				Help:    "Time taken to render view artifacts.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"view"},
		),
		stageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmap_stage_errors_total",
				Help: "Pipeline stage failures.",
			},
			[]string{"stage", "view"},
		),
		cacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmap_cache_events_total",
				Help: "Cache lookups and writes by key type.",
			},
			[]string{"key_type", "event"},
		),
		cacheBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmap_cache_written_bytes_total",
				Help: "Bytes written to the cache by key type.",
			},
			[]string{"key_type"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.requestErrors,
		m.graphNodes,
		m.graphEdges,
		m.dropped,
		m.activations,
		m.layoutTime,
		m.renderTime,
		m.stageErrors,
		m.cacheEvents,
		m.cacheBytes,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Install makes m the process-wide pipeline, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.Install(observability.Hooks{Pipeline: m, Cache: m, HTTP: m})
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

func (m *Metrics) OnGraphBuilt(_ context.Context, stats observability.GraphStats, _ time.Duration) {
	m.graphNodes.Set(float64(stats.Nodes))
	m.graphEdges.Set(float64(stats.Edges))
	m.dropped.WithLabelValues("node").Add(float64(stats.DroppedNodes))
	m.dropped.WithLabelValues("edge").Add(float64(stats.DroppedEdges))
}

func (m *Metrics) OnViewSettled(_ context.Context, act observability.Activation, err error) {
	if err != nil {
		m.stageErrors.WithLabelValues("layout", "full").Inc()
		return
	}
	m.activations.WithLabelValues(strconv.FormatBool(act.LayoutCached)).Inc()
	m.layoutTime.WithLabelValues("full").Observe(act.Duration.Seconds())
}

func (m *Metrics) OnRendered(_ context.Context, r observability.Render, err error) {
	if err != nil {
		m.stageErrors.WithLabelValues("render", r.View).Inc()
		return
	}
	m.renderTime.WithLabelValues(r.View).Observe(r.Duration.Seconds())
}

// =============================================================================
// Cache and HTTP Hooks
// =============================================================================

func (m *Metrics) OnCache(_ context.Context, ev observability.CacheEvent) {
	m.cacheEvents.WithLabelValues(ev.Kind, string(ev.Op)).Inc()
	if ev.Op == observability.CacheSet {
		m.cacheBytes.WithLabelValues(ev.Kind).Add(float64(ev.Size))
	}
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, method, route string, _ error) {
	m.requestErrors.WithLabelValues(method, route).Inc()
}
