// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nutriplan/engine/internal/infrastructure/config"
	gormstore "github.com/nutriplan/engine/internal/infrastructure/persistence/gorm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// ConnectionManager owns the primary connection and the read replicas.
// Plan snapshot reads are routed to replicas by dbresolver; writes and
// transactions stay on the primary.
type ConnectionManager struct {
	config       *config.Config
	logger       *zap.Logger
	db           *gorm.DB
	writeDB      *sql.DB
	queryMonitor *QueryMonitor
}

// NewConnectionManager connects to the primary and registers replicas
func NewConnectionManager(cfg *config.Config, reg prometheus.Registerer, log *zap.Logger) (*ConnectionManager, error) {
	cm := &ConnectionManager{
		config:       cfg,
		logger:       log.Named("postgres"),
		queryMonitor: NewQueryMonitor(cfg.Database.SlowQueryThreshold, reg, log),
	}

	if err := cm.initializePrimaryConnection(); err != nil {
		return nil, fmt.Errorf("failed to initialize primary connection: %w", err)
	}

	if err := cm.initializeReadReplicas(); err != nil {
		log.Warn("Failed to initialize read replicas", zap.Error(err))
	}

	if reg != nil {
		if err := reg.Register(collectors.NewDBStatsCollector(cm.writeDB, cfg.Database.Database)); err != nil {
			log.Warn("Failed to register connection pool collector", zap.Error(err))
		}
	}

	cm.logger.Info("Database connection manager initialized",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
		zap.Duration("conn_max_lifetime", cfg.Database.ConnMaxLifetime),
		zap.Int("replicas", len(cfg.Database.ReadReplicas)),
	)

	return cm, nil
}

// initializePrimaryConnection sets up the primary database connection
func (cm *ConnectionManager) initializePrimaryConnection() error {
	dbCfg := cm.config.Database

	db, err := gorm.Open(postgres.Open(cm.config.GetDSN()), &gorm.Config{
		Logger:         gormstore.NewLogger(cm.logger, dbCfg.LogLevel, dbCfg.SlowQueryThreshold),
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dbCfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	cm.db = db
	cm.writeDB = sqlDB

	if err := cm.queryMonitor.Install(db); err != nil {
		cm.logger.Warn("Failed to install query monitoring", zap.Error(err))
	}

	return nil
}

// initializeReadReplicas sets up read replica connections
func (cm *ConnectionManager) initializeReadReplicas() error {
	dsns := cm.config.ReplicaDSNs()
	if len(dsns) == 0 {
		return nil
	}

	replicas := make([]gorm.Dialector, len(dsns))
	for i, dsn := range dsns {
		replicas[i] = postgres.Open(dsn)
	}

	dbCfg := cm.config.Database
	err := cm.db.Use(dbresolver.Register(dbresolver.Config{
		Replicas:          replicas,
		Policy:            getLoadBalancePolicy(dbCfg.LoadBalancePolicy),
		TraceResolverMode: dbCfg.LogLevel == "debug",
	}).
		SetMaxOpenConns(dbCfg.MaxOpenConns).
		SetMaxIdleConns(dbCfg.MaxIdleConns).
		SetConnMaxLifetime(dbCfg.ConnMaxLifetime).
		SetConnMaxIdleTime(dbCfg.ConnMaxIdleTime))
	if err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}

	cm.logger.Info("Read replicas configured",
		zap.Int("replica_count", len(dsns)),
		zap.String("load_balance_policy", dbCfg.LoadBalancePolicy),
	)

	return nil
}

// GetDB returns the main database connection
func (cm *ConnectionManager) GetDB() *gorm.DB {
	return cm.db
}

// GetQueryMonitor returns the query monitor
func (cm *ConnectionManager) GetQueryMonitor() *QueryMonitor {
	return cm.queryMonitor
}

// HealthCheck pings the primary
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.writeDB.PingContext(ctx); err != nil {
		return fmt.Errorf("primary database ping failed: %w", err)
	}
	return nil
}

// Close closes the primary connection
func (cm *ConnectionManager) Close() error {
	if cm.writeDB == nil {
		return nil
	}
	if err := cm.writeDB.Close(); err != nil {
		cm.logger.Error("Failed to close primary database", zap.Error(err))
		return err
	}
	return nil
}

// getLoadBalancePolicy converts string to dbresolver policy
func getLoadBalancePolicy(policy string) dbresolver.Policy {
	switch policy {
	case "round_robin":
		return dbresolver.StrictRoundRobinPolicy()
	default:
		return dbresolver.RandomPolicy{}
	}
}
