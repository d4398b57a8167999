// Package metrics exports witness resolution metrics to prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "witnessgen"

// ResolverMetrics counts generator runs by generator id. It implements
// circuit.Observer.
type ResolverMetrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewResolverMetrics registers the resolver metrics with reg.
func NewResolverMetrics(reg prometheus.Registerer) *ResolverMetrics {
	m := &ResolverMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_runs_total",
			Help:      "Number of generator runs.",
		}, []string{"generator"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_failures_total",
			Help:      "Number of generator runs that aborted resolution.",
		}, []string{"generator"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_duration_seconds",
			Help:      "Wall time of a generator run, external calls included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"generator"}),
	}
	reg.MustRegister(m.runs, m.failures, m.duration)
	return m
}

func (m *ResolverMetrics) GeneratorFinished(id string, took time.Duration, err error) {
	m.runs.WithLabelValues(id).Inc()
	m.duration.WithLabelValues(id).Observe(took.Seconds())
	if err != nil {
		m.failures.WithLabelValues(id).Inc()
	}
}
