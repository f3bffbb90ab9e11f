package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheLookups  *prometheus.CounterVec
	fetchAttempts *prometheus.CounterVec
	sourceStatus  *prometheus.CounterVec
	debates       *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pippydesk_cache_lookups_total",
				Help: "Cache lookups by cache and result (hit, miss, stale)",
			},
			[]string{"cache", "result"},
		),
		fetchAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pippydesk_fetch_attempts_total",
				Help: "Upstream fetch attempts by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		sourceStatus: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pippydesk_aggregate_sections_total",
				Help: "Aggregated context sections by status",
			},
			[]string{"section", "status"},
		),
		debates: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pippydesk_debates_total",
				Help: "Debate outcomes by mode",
			},
			[]string{"mode"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pippydesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pippydesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"operation"},
		),
	}
}

// RecordCache records a cache lookup result.
func (r *Recorder) RecordCache(cache, result string) {
	r.cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordFetchAttempt records one upstream attempt.
func (r *Recorder) RecordFetchAttempt(source, outcome string) {
	r.fetchAttempts.WithLabelValues(source, outcome).Inc()
}

// RecordSourceStatus records the status of one aggregated section.
func (r *Recorder) RecordSourceStatus(section, status string) {
	r.sourceStatus.WithLabelValues(section, status).Inc()
}

// RecordDebate records how a debate resolved.
func (r *Recorder) RecordDebate(mode string) {
	r.debates.WithLabelValues(mode).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) RecordCache(string, string)        {}
func (Noop) RecordFetchAttempt(string, string) {}
func (Noop) RecordSourceStatus(string, string) {}
func (Noop) RecordDebate(string)               {}
func (Noop) RecordError(string)                {}
func (Noop) RecordLatency(string, float64)     {}
