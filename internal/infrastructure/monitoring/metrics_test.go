package monitoring

import (
	"testing"
	"time"

	"github.com/nutriplan/engine/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsCollector("nutriplan", reg)

	m.ObserveOperation("generate_report", 20*time.Millisecond, nil)
	m.ObserveOperation("add_meal_option", time.Millisecond, errors.NewLimitExceededError("meal slot", 2))
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	m.ObserveOptimization("proportion", 12, true)
	m.ObserveSlotChange("add")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("generate_report", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("add_meal_option", "LIMIT_EXCEEDED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.optimizerRuns.WithLabelValues("proportion", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.slotChanges.WithLabelValues("add")))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "nutriplan_operation_duration_seconds"))
}
