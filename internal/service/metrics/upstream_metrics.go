package metrics

import (
	"sync"
	"time"

	"PippyDesk/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pippydesk",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Latency of provider HTTP calls",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "method"},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pippydesk",
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Provider call failures by kind",
		},
		[]string{"provider", "kind"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(UpstreamLatency, UpstreamErrors)
	})
}

// ObserveCall records one provider call that started at start.
func ObserveCall(provider, method string, start time.Time, err error) {
	UpstreamLatency.WithLabelValues(provider, method).Observe(time.Since(start).Seconds())
	if err != nil {
		UpstreamErrors.WithLabelValues(provider, models.FailureKind(err)).Inc()
	}
}
