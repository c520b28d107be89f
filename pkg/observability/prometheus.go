package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusHooks implements every hook interface with Prometheus
// collectors.
type PrometheusHooks struct {
	LayoutsTotal   *prometheus.CounterVec
	LayoutDuration *prometheus.HistogramVec
	LayoutNodes    *prometheus.HistogramVec
	StageDuration  *prometheus.HistogramVec

	CacheRequests *prometheus.CounterVec
	CacheBytes    *prometheus.CounterVec

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// NewPrometheusHooks creates the collectors and registers them with reg.
// It panics if a collector with the same name is already registered.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	return &PrometheusHooks{
		LayoutsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strata_layouts_total",
				Help: "Total number of layout runs",
			},
			[]string{"pipeline", "status"},
		),
		LayoutDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "strata_layout_duration_seconds",
				Help:    "Layout latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"pipeline"},
		),
		LayoutNodes: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "strata_layout_nodes",
				Help:    "Number of nodes per layout input",
				Buckets: []float64{10, 50, 100, 500, 1000, 5000},
			},
			[]string{"pipeline"},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "strata_stage_duration_seconds",
				Help:    "Layout stage latency in seconds",
				Buckets: []float64{.0001, .001, .01, .1, 1, 10},
			},
			[]string{"pipeline", "stage"},
		),
		CacheRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strata_cache_requests_total",
				Help: "Cache lookups by result",
			},
			[]string{"key_type", "result"},
		),
		CacheBytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strata_cache_written_bytes_total",
				Help: "Bytes written to the cache",
			},
			[]string{"key_type"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strata_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "strata_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "strata_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
	}
}

func (h *PrometheusHooks) OnLayoutStart(_ context.Context, pipeline string, nodeCount int) {
	h.LayoutNodes.WithLabelValues(pipeline).Observe(float64(nodeCount))
}

func (h *PrometheusHooks) OnLayoutComplete(_ context.Context, pipeline string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.LayoutsTotal.WithLabelValues(pipeline, status).Inc()
	h.LayoutDuration.WithLabelValues(pipeline).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnStageComplete(_ context.Context, pipeline, stage string, d time.Duration) {
	h.StageDuration.WithLabelValues(pipeline, stage).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnRequest tracks the request as in flight until OnResponse.
func (h *PrometheusHooks) OnRequest(context.Context, string, string) {
	h.HTTPRequestsInFlight.Inc()
}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.HTTPRequestsInFlight.Dec()
	h.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
)
