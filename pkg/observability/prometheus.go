package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	perr "github.com/matzehuels/phasehull/pkg/errors"
)

// PrometheusHooks implements every hook interface on a private registry.
type PrometheusHooks struct {
	registry *prometheus.Registry

	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stableEntries prometheus.Histogram
	specialPoints prometheus.Counter

	cacheOps   *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec

	httpTotal    *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
}

// NewPrometheusHooks creates hooks whose metrics live under namespace.
// When goMetrics is set the Go runtime and process collectors are registered too.
func NewPrometheusHooks(namespace string, goMetrics bool) *PrometheusHooks {
	if namespace == "" {
		namespace = "phasehull"
	}
	buckets := []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

	h := &PrometheusHooks{
		registry: prometheus.NewRegistry(),
		stageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stage_total",
			Help: "Pipeline stage executions by stage and result.",
		}, []string{"stage", "result"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "stage_duration_seconds",
			Help: "Pipeline stage latency.", Buckets: buckets,
		}, []string{"stage"}),
		stableEntries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "stable_entries",
			Help:    "Number of stable entries per computed complex.",
			Buckets: prometheus.ExponentialBuckets(2, 2, 8),
		}),
		specialPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "special_points_total",
			Help: "Invariant points found by temperature sweeps.",
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "operations_total",
			Help: "Cache lookups and writes by key type and operation.",
		}, []string{"key_type", "op"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "written_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "HTTP request latency.", Buckets: buckets,
		}, []string{"method", "route"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "errors_total",
			Help: "Failed HTTP requests by route and error code.",
		}, []string{"route", "code"}),
	}
	h.registry.MustRegister(
		h.stageTotal, h.stageDuration, h.stableEntries, h.specialPoints,
		h.cacheOps, h.cacheBytes,
		h.httpTotal, h.httpDuration, h.httpErrors,
	)
	if goMetrics {
		h.registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: namespace}),
		)
	}
	return h
}

// Registry returns the registry holding the hook metrics.
func (h *PrometheusHooks) Registry() *prometheus.Registry { return h.registry }

// Handler serves the registry in the Prometheus exposition format.
func (h *PrometheusHooks) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Register installs h as the global pipeline, cache and HTTP hooks.
func (h *PrometheusHooks) Register() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *PrometheusHooks) stage(stage string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	h.stageTotal.WithLabelValues(stage, result).Inc()
	h.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnHullStart(context.Context, int, int) {}

func (h *PrometheusHooks) OnHullComplete(_ context.Context, _ int, stable int, d time.Duration, err error) {
	h.stage("hull", d, err)
	if err == nil {
		h.stableEntries.Observe(float64(stable))
	}
}

func (h *PrometheusHooks) OnSweepStart(context.Context, int) {}

func (h *PrometheusHooks) OnSweepComplete(_ context.Context, _ int, points int, d time.Duration, err error) {
	h.stage("sweep", d, err)
	h.specialPoints.Add(float64(points))
}

func (h *PrometheusHooks) OnChemPotStart(context.Context, int) {}

func (h *PrometheusHooks) OnChemPotComplete(_ context.Context, _ int, d time.Duration, err error) {
	h.stage("chempot", d, err)
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.httpTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnError(_ context.Context, _ string, route string, err error) {
	code := string(perr.GetCode(err))
	if code == "" {
		code = "UNKNOWN"
		if errors.Is(err, context.Canceled) {
			code = "CANCELED"
		}
	}
	h.httpErrors.WithLabelValues(route, code).Inc()
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
)
