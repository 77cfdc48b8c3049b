// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/jarscope/pkg/observability"
)

const namespace = "jarscope"

// Metrics holds the jarscope collectors. It implements every hook interface
// of the observability package.
type Metrics struct {
	registry *prometheus.Registry

	LoadsTotal       *prometheus.CounterVec
	LoadedArchives   prometheus.Gauge
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	RendersTotal     *prometheus.CounterVec
	RenderDuration   *prometheus.HistogramVec
	CacheOps         *prometheus.CounterVec
	CacheBytes       *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.LoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_loads_total",
			Help:      "Total number of inventory loads",
		},
		[]string{"status"},
	)
	m.LoadedArchives = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inventory_archives",
			Help:      "Number of archives in the last loaded inventory",
		},
	)
	m.AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of analysis runs by resulting severity",
		},
		[]string{"severity"},
	)
	m.AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of analysis runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
	m.RendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Total number of rendered artifacts",
		},
		[]string{"format", "status"},
	)
	m.RenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of artifact rendering in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"format"},
	)
	m.CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type and result",
		},
		[]string{"key_type", "result"},
	)
	m.CacheBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		},
		[]string{"key_type"},
	)
	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	m.HTTPInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests being served",
		},
	)

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.LoadsTotal,
		m.LoadedArchives,
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.RendersTotal,
		m.RenderDuration,
		m.CacheOps,
		m.CacheBytes,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPInFlight,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Install registers m as the analysis, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetAnalysisHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnLoad implements observability.AnalysisHooks.
func (m *Metrics) OnLoad(_ context.Context, archives int, _ time.Duration, err error) {
	m.LoadsTotal.WithLabelValues(status(err)).Inc()
	if err == nil {
		m.LoadedArchives.Set(float64(archives))
	}
}

// OnAnalyzeStart implements observability.AnalysisHooks.
func (m *Metrics) OnAnalyzeStart(context.Context, int) {}

// OnAnalyzeComplete implements observability.AnalysisHooks.
func (m *Metrics) OnAnalyzeComplete(_ context.Context, _ int, severity string, d time.Duration, err error) {
	if err != nil {
		severity = "error"
	}
	m.AnalysesTotal.WithLabelValues(severity).Inc()
	m.AnalysisDuration.Observe(d.Seconds())
}

// OnRender implements observability.AnalysisHooks.
func (m *Metrics) OnRender(_ context.Context, format string, d time.Duration, err error) {
	m.RendersTotal.WithLabelValues(format, status(err)).Inc()
	m.RenderDuration.WithLabelValues(format).Observe(d.Seconds())
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheOps.WithLabelValues(keyType, "set").Inc()
	m.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnRequest implements observability.HTTPHooks.
func (m *Metrics) OnRequest(context.Context, string, string) {
	m.HTTPInFlight.Inc()
}

// OnResponse implements observability.HTTPHooks.
func (m *Metrics) OnResponse(_ context.Context, method, route string, statusCode int, d time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.AnalysisHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
