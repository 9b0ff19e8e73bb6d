// Package metrics provides Prometheus-based metrics for pipeline runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder receives pipeline measurements.
type Recorder interface {
	// ObserveLLMRequest records one model round trip for a stage role.
	ObserveLLMRequest(role, status string, duration time.Duration)
	// IncValidationFailure counts a reply that failed its output contract.
	IncValidationFailure(role string)
	// ObserveStage records how long one stage invocation took.
	ObserveStage(stage string, duration time.Duration)
	// ObserveCommand records one plan step by status (succeeded, failed, skipped).
	ObserveCommand(status string, duration time.Duration)
	// IncRun counts a finished run by outcome kind.
	IncRun(outcome string)
}

// PrometheusRecorder implements Recorder on a private registry.
type PrometheusRecorder struct {
	registry           *prometheus.Registry
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	validationFailures *prometheus.CounterVec
	commandsTotal      *prometheus.CounterVec
	runsTotal          *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	commandDuration    prometheus.Histogram
}

// NewPrometheusRecorder creates a recorder with its own registry, so
// several can coexist in one process.
func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		llmRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediaagent_llm_requests_total",
				Help: "Total number of model requests by stage role and status",
			},
			[]string{"role", "status"},
		),
		llmRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mediaagent_llm_request_duration_seconds",
				Help:    "Duration of model requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"role"},
		),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediaagent_validation_failures_total",
				Help: "Model replies that did not satisfy the declared output shape",
			},
			[]string{"role"},
		),
		commandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediaagent_commands_total",
				Help: "Plan steps by result status",
			},
			[]string{"status"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediaagent_runs_total",
				Help: "Finished runs by outcome",
			},
			[]string{"outcome"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mediaagent_stage_duration_seconds",
				Help:    "Duration of one stage invocation in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		commandDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mediaagent_command_duration_seconds",
				Help:    "Duration of shell commands in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 4, 8),
			},
		),
	}
}

// ObserveLLMRequest implements Recorder.
func (p *PrometheusRecorder) ObserveLLMRequest(role, status string, duration time.Duration) {
	p.llmRequestsTotal.WithLabelValues(role, status).Inc()
	p.llmRequestDuration.WithLabelValues(role).Observe(duration.Seconds())
}

// IncValidationFailure implements Recorder.
func (p *PrometheusRecorder) IncValidationFailure(role string) {
	p.validationFailures.WithLabelValues(role).Inc()
}

// ObserveStage implements Recorder.
func (p *PrometheusRecorder) ObserveStage(stage string, duration time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveCommand implements Recorder. Skipped steps are counted but not timed.
func (p *PrometheusRecorder) ObserveCommand(status string, duration time.Duration) {
	p.commandsTotal.WithLabelValues(status).Inc()
	if status != "skipped" {
		p.commandDuration.Observe(duration.Seconds())
	}
}

// IncRun implements Recorder.
func (p *PrometheusRecorder) IncRun(outcome string) {
	p.runsTotal.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) ObserveLLMRequest(string, string, time.Duration) {}
func (NopRecorder) IncValidationFailure(string)                     {}
func (NopRecorder) ObserveStage(string, time.Duration)              {}
func (NopRecorder) ObserveCommand(string, time.Duration)            {}
func (NopRecorder) IncRun(string)                                   {}

// OrNop returns r, or a NopRecorder when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return NopRecorder{}
	}
	return r
}
