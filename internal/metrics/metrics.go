// Package metrics exposes Prometheus collectors for the content pipeline.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

type Metrics struct {
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration *prometheus.HistogramVec
	LocaleOutcomes   *prometheus.CounterVec
	Embeddings       *prometheus.CounterVec
	UpstreamCalls    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	SearchRequests   *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ocms_pipeline_runs_total",
			Help: "Post pipeline runs by mode and result.",
		}, []string{"mode", "result"}),
		PipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ocms_pipeline_run_duration_seconds",
			Help:    "Duration of post pipeline runs.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"mode"}),
		LocaleOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ocms_locale_outcomes_total",
			Help: "Per-locale generation and translation outcomes.",
		}, []string{"locale", "result"}),
		Embeddings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ocms_embeddings_total",
			Help: "Embedding upserts by result.",
		}, []string{"result"}),
		UpstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ocms_upstream_calls_total",
			Help: "Calls to upstream AI services by operation and result.",
		}, []string{"operation", "result"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ocms_upstream_call_duration_seconds",
			Help:    "Duration of upstream AI calls, including limiter wait.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"operation"}),
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ocms_search_requests_total",
			Help: "Semantic search requests by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ocms_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}

	reg.MustRegister(
		m.PipelineRuns, m.PipelineDuration, m.LocaleOutcomes, m.Embeddings,
		m.UpstreamCalls, m.UpstreamDuration, m.SearchRequests, m.HTTPRequests,
	)
	return m
}

// Setup creates a registry with the pipeline and Go runtime collectors and
// returns the handler that serves it.
func Setup() (*Metrics, http.Handler) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := New(reg)
	return m, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

// ObservePipelineRun records a finished pipeline run.
func (m *Metrics) ObservePipelineRun(mode string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(mode, result(err)).Inc()
	m.PipelineDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())
}

// ObserveLocale records one locale outcome.
func (m *Metrics) ObserveLocale(locale string, res string) {
	if m == nil {
		return
	}
	m.LocaleOutcomes.WithLabelValues(locale, res).Inc()
}

// AddEmbeddings records a batch of embedding results.
func (m *Metrics) AddEmbeddings(succeeded, failed, skipped int) {
	if m == nil {
		return
	}
	m.Embeddings.WithLabelValues(ResultSuccess).Add(float64(succeeded))
	m.Embeddings.WithLabelValues(ResultFailure).Add(float64(failed))
	m.Embeddings.WithLabelValues(ResultSkipped).Add(float64(skipped))
}

// ObserveUpstream records one upstream AI call.
func (m *Metrics) ObserveUpstream(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.UpstreamCalls.WithLabelValues(operation, result(err)).Inc()
	m.UpstreamDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// ObserveSearch records one search request.
func (m *Metrics) ObserveSearch(err error) {
	if m == nil {
		return
	}
	m.SearchRequests.WithLabelValues(result(err)).Inc()
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, code).Inc()
}
