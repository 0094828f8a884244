package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/zerr"
)

// PromMetrics implements ports.Metrics on a private Prometheus registry.
// A private registry keeps repeated builds in one process from sharing counters.
type PromMetrics struct {
	registry      *prometheus.Registry
	cacheRequests *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
}

// NewPromMetrics creates and registers the build metrics.
func NewPromMetrics() *PromMetrics {
	m := &PromMetrics{
		registry: prometheus.NewRegistry(),
		cacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slim_dependency_cache_requests_total",
				Help: "Dependency cache lookups by subset and result",
			},
			[]string{"subset", "result"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slim_stage_duration_seconds",
				Help:    "Wall time of successfully executed stages",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"stage", "role"},
		),
		stageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slim_stage_failures_total",
				Help: "Stages that failed",
			},
			[]string{"stage"},
		),
	}

	m.registry.MustRegister(m.cacheRequests, m.stageDuration, m.stageFailures)

	return m
}

// Registry exposes the underlying registry for gathering.
func (m *PromMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// CacheRequest records a dependency cache lookup.
func (m *PromMetrics) CacheRequest(subset domain.Subset, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(string(subset), result).Inc()
}

// StageCompleted records the duration of a successful stage.
func (m *PromMetrics) StageCompleted(stage string, role domain.Role, d time.Duration) {
	m.stageDuration.WithLabelValues(stage, string(role)).Observe(d.Seconds())
}

// StageFailed records a failed stage.
func (m *PromMetrics) StageFailed(stage string, _ domain.Role) {
	m.stageFailures.WithLabelValues(stage).Inc()
}

// WriteFile writes the registry in textfile-collector format to path.
func (m *PromMetrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics file"), "path", path)
	}
	return nil
}
