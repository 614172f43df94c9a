package postgres

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const monitorContextKey = "query_monitor_context"

// QueryMonitor tracks query durations through GORM callbacks
type QueryMonitor struct {
	logger        *zap.Logger
	slowThreshold time.Duration
	duration      *prometheus.HistogramVec
	failures      *prometheus.CounterVec

	mu          sync.RWMutex
	stats       QueryStats
	slowQueries []SlowQuery
	maxSlowLogs int
}

// QueryStats holds aggregated query statistics
type QueryStats struct {
	TotalQueries     int64         `json:"total_queries"`
	SlowQueries      int64         `json:"slow_queries"`
	FailedQueries    int64         `json:"failed_queries"`
	AverageQueryTime time.Duration `json:"average_query_time"`
	TotalQueryTime   time.Duration `json:"total_query_time"`
}

// SlowQuery is one statement that exceeded the threshold
type SlowQuery struct {
	Operation string        `json:"operation"`
	SQL       string        `json:"sql"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
	Error     string        `json:"error,omitempty"`
}

type queryContext struct {
	start time.Time
}

// NewQueryMonitor creates a monitor. A nil registerer leaves the
// collectors unregistered.
func NewQueryMonitor(slowThreshold time.Duration, reg prometheus.Registerer, logger *zap.Logger) *QueryMonitor {
	if slowThreshold <= 0 {
		slowThreshold = 100 * time.Millisecond
	}
	factory := promauto.With(reg)
	return &QueryMonitor{
		logger:        logger.Named("query-monitor"),
		slowThreshold: slowThreshold,
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nutriplan",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of database statements by operation",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutriplan",
			Subsystem: "db",
			Name:      "query_failures_total",
			Help:      "Database statements that returned an error",
		}, []string{"operation"}),
		maxSlowLogs: 100,
	}
}

// Install registers before/after callbacks on every statement kind
func (qm *QueryMonitor) Install(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("monitor:before_query", qm.before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("monitor:after_query", qm.after("query")); err != nil {
		return err
	}
	if err := cb.Create().Before("gorm:create").Register("monitor:before_create", qm.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("monitor:after_create", qm.after("create")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("monitor:before_update", qm.before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("monitor:after_update", qm.after("update")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("monitor:before_delete", qm.before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("monitor:after_delete", qm.after("delete")); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("monitor:before_raw", qm.before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("monitor:after_raw", qm.after("raw"))
}

func (qm *QueryMonitor) before(db *gorm.DB) {
	if db.Statement == nil {
		return
	}
	db.InstanceSet(monitorContextKey, &queryContext{start: time.Now()})
}

func (qm *QueryMonitor) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement == nil {
			return
		}
		v, ok := db.InstanceGet(monitorContextKey)
		if !ok {
			return
		}
		qc, ok := v.(*queryContext)
		if !ok {
			return
		}
		qm.record(op, db.Statement.SQL.String(), time.Since(qc.start), db.Error)
	}
}

func (qm *QueryMonitor) record(op, sql string, d time.Duration, err error) {
	qm.duration.WithLabelValues(op).Observe(d.Seconds())
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	if failed {
		qm.failures.WithLabelValues(op).Inc()
	}

	qm.mu.Lock()
	defer qm.mu.Unlock()

	qm.stats.TotalQueries++
	qm.stats.TotalQueryTime += d
	qm.stats.AverageQueryTime = qm.stats.TotalQueryTime / time.Duration(qm.stats.TotalQueries)
	if failed {
		qm.stats.FailedQueries++
	}
	if d < qm.slowThreshold {
		return
	}

	qm.stats.SlowQueries++
	slow := SlowQuery{Operation: op, SQL: sanitizeSQL(sql), Duration: d, Timestamp: time.Now()}
	if failed {
		slow.Error = err.Error()
	}
	qm.slowQueries = append(qm.slowQueries, slow)
	if len(qm.slowQueries) > qm.maxSlowLogs {
		qm.slowQueries = qm.slowQueries[len(qm.slowQueries)-qm.maxSlowLogs:]
	}
	qm.logger.Warn("Slow query detected",
		zap.String("operation", op),
		zap.String("sql", slow.SQL),
		zap.Duration("duration", d),
	)
}

// sanitizeSQL strips literals and truncates long statements
func sanitizeSQL(sql string) string {
	sanitized := strings.ReplaceAll(sql, "'", "?")
	if len(sanitized) > 500 {
		sanitized = sanitized[:500] + "..."
	}
	return sanitized
}

// GetStats returns a copy of the aggregated statistics
func (qm *QueryMonitor) GetStats() QueryStats {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.stats
}

// GetSlowQueries returns up to limit of the most recent slow queries
func (qm *QueryMonitor) GetSlowQueries(limit int) []SlowQuery {
	qm.mu.RLock()
	defer qm.mu.RUnlock()

	if limit <= 0 || limit > len(qm.slowQueries) {
		limit = len(qm.slowQueries)
	}
	out := make([]SlowQuery, limit)
	copy(out, qm.slowQueries[len(qm.slowQueries)-limit:])
	return out
}
