package healthcheck

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthMetrics provides Prometheus metrics for health checks
type HealthMetrics struct {
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	healthStatus  *prometheus.GaugeVec
}

// NewHealthMetrics registers health metrics on reg. A nil registerer
// creates unregistered collectors.
func NewHealthMetrics(namespace string, reg prometheus.Registerer) *HealthMetrics {
	factory := promauto.With(reg)
	return &HealthMetrics{
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "checks_total",
				Help:      "Total number of health checks performed",
			},
			[]string{"check_name", "status"},
		),
		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "check_duration_seconds",
				Help:      "Duration of health checks",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"check_name"},
		),
		healthStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "status",
				Help:      "Current status per check (1 healthy, 0.5 degraded, 0 unhealthy)",
			},
			[]string{"check_name"},
		),
	}
}

// RecordCheck records one check result
func (hm *HealthMetrics) RecordCheck(name string, status Status, duration time.Duration) {
	hm.checksTotal.WithLabelValues(name, string(status)).Inc()
	hm.checkDuration.WithLabelValues(name).Observe(duration.Seconds())
	hm.healthStatus.WithLabelValues(name).Set(statusToFloat(status))
}

func statusToFloat(status Status) float64 {
	switch status {
	case StatusHealthy:
		return 1
	case StatusDegraded:
		return 0.5
	default:
		return 0
	}
}

type metricsMiddleware struct {
	metrics *HealthMetrics
	next    Checker
}

func (m *metricsMiddleware) Check(ctx context.Context) Check {
	start := time.Now()
	check := m.next.Check(ctx)
	m.metrics.RecordCheck(check.Name, check.Status, time.Since(start))
	return check
}

// WithMetrics wraps a checker with metrics collection
func WithMetrics(metrics *HealthMetrics, checker Checker) Checker {
	if metrics == nil {
		return checker
	}
	return &metricsMiddleware{metrics: metrics, next: checker}
}
