// Package monitoring provides Prometheus metrics for the engine
package monitoring

import (
	"time"

	"github.com/nutriplan/engine/internal/ports/outbound"
	"github.com/nutriplan/engine/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector implements outbound.EngineMetrics with Prometheus
type MetricsCollector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
	optimizerRuns     *prometheus.CounterVec
	optimizerSteps    *prometheus.HistogramVec
	slotChanges       *prometheus.CounterVec
}

var _ outbound.EngineMetrics = (*MetricsCollector)(nil)

// NewMetricsCollector registers the engine metrics on reg
func NewMetricsCollector(namespace string, reg prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(reg)
	return &MetricsCollector{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Engine operations by name and result code",
			},
			[]string{"operation", "code"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Engine operation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_cache_lookups_total",
				Help:      "Report cache lookups by result",
			},
			[]string{"result"},
		),
		optimizerRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "optimizer_runs_total",
				Help:      "Search and proportion runs by convergence",
			},
			[]string{"kind", "converged"},
		),
		optimizerSteps: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "optimizer_iterations",
				Help:      "Iterations used per optimizer run",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 200, 500},
			},
			[]string{"kind"},
		),
		slotChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "meal_slot_changes_total",
				Help:      "Meal option changes by action",
			},
			[]string{"action"},
		),
	}
}

// ObserveOperation records one service call
func (m *MetricsCollector) ObserveOperation(operation string, duration time.Duration, err error) {
	code := "OK"
	if err != nil {
		code = string(errors.GetCode(err))
	}
	m.operationsTotal.WithLabelValues(operation, code).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveCache records a report cache lookup
func (m *MetricsCollector) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveOptimization records an optimizer run
func (m *MetricsCollector) ObserveOptimization(kind string, iterations int, converged bool) {
	label := "false"
	if converged {
		label = "true"
	}
	m.optimizerRuns.WithLabelValues(kind, label).Inc()
	m.optimizerSteps.WithLabelValues(kind).Observe(float64(iterations))
}

// ObserveSlotChange records an add, delete or reorder
func (m *MetricsCollector) ObserveSlotChange(action string) {
	m.slotChanges.WithLabelValues(action).Inc()
}
