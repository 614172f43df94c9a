// Package container wires the engine with Uber FX
package container

import (
	"context"
	"fmt"
	"time"

	appnutrition "github.com/nutriplan/engine/internal/application/nutrition"
	"github.com/nutriplan/engine/internal/application/mealoption"
	"github.com/nutriplan/engine/internal/domain/analysis"
	"github.com/nutriplan/engine/internal/domain/optimization"
	"github.com/nutriplan/engine/internal/infrastructure/catalog"
	"github.com/nutriplan/engine/internal/infrastructure/config"
	"github.com/nutriplan/engine/internal/infrastructure/monitoring"
	gormstore "github.com/nutriplan/engine/internal/infrastructure/persistence/gorm"
	"github.com/nutriplan/engine/internal/infrastructure/persistence/memory"
	"github.com/nutriplan/engine/internal/infrastructure/persistence/migrations"
	"github.com/nutriplan/engine/internal/infrastructure/persistence/postgres"
	redisstore "github.com/nutriplan/engine/internal/infrastructure/persistence/redis"
	"github.com/nutriplan/engine/internal/infrastructure/persistence/sqlite"
	"github.com/nutriplan/engine/internal/ports/inbound"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"github.com/nutriplan/engine/pkg/healthcheck"
	"github.com/nutriplan/engine/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module provides every component except the configuration
var Module = fx.Options(
	LoggerModule,
	MetricsModule,
	DatabaseModule,
	CacheModule,
	RepositoryModule,
	ServiceModule,
	HealthModule,
	LifecycleModule,
)

// New returns the application options for cfg
func New(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
	)
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug || cfg.IsDevelopment(),
			Service:     cfg.App.Name,
			Environment: cfg.App.Environment,
		})
	},
)

// MetricsModule provides the Prometheus registry and engine metrics.
// With metrics disabled the collectors are created unregistered.
var MetricsModule = fx.Provide(
	func(cfg *config.Config) *prometheus.Registry {
		return prometheus.NewRegistry()
	},
	func(cfg *config.Config, reg *prometheus.Registry) prometheus.Registerer {
		if !cfg.Monitoring.EnableMetrics {
			return nil
		}
		return reg
	},
	fx.Annotate(
		func(cfg *config.Config, reg prometheus.Registerer) *monitoring.MetricsCollector {
			return monitoring.NewMetricsCollector(cfg.Monitoring.Namespace, reg)
		},
		fx.As(new(outbound.EngineMetrics)),
	),
)

// DatabaseModule provides the gorm connection for the configured driver
var DatabaseModule = fx.Provide(provideDatabase)

func provideDatabase(lc fx.Lifecycle, cfg *config.Config, reg prometheus.Registerer, log *zap.Logger) (*gorm.DB, error) {
	var (
		db      *gorm.DB
		closeDB func() error
	)

	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.AutoMigrate {
			if err := migrateUp(cfg, log); err != nil {
				return nil, err
			}
		}
		cm, err := postgres.NewConnectionManager(cfg, reg, log)
		if err != nil {
			return nil, err
		}
		db = cm.GetDB()
		closeDB = func() error {
			stats := cm.GetQueryMonitor().GetStats()
			log.Info("Query statistics",
				zap.Int64("total", stats.TotalQueries),
				zap.Int64("slow", stats.SlowQueries),
				zap.Int64("failed", stats.FailedQueries),
				zap.Duration("average", stats.AverageQueryTime),
			)
			return cm.Close()
		}
	default:
		gormLog := gormstore.NewLogger(log, cfg.Database.LogLevel, cfg.Database.SlowQueryThreshold)
		var err error
		db, err = sqlite.SetupDatabase(cfg.Database.Path, gormLog)
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		closeDB = func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		log.Info("Connected to SQLite database", zap.String("path", cfg.Database.Path))
	}

	if cfg.Database.Seed && cfg.IsProduction() {
		log.Warn("Demo seeding is disabled in production")
	} else if cfg.Database.Seed {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sqlite.SeedDatabase(ctx, db); err != nil {
			log.Warn("Failed to seed database", zap.Error(err))
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := closeDB(); err != nil {
				log.Error("Failed to close database connection", zap.Error(err))
			}
			return nil
		},
	})
	return db, nil
}

func migrateUp(cfg *config.Config, log *zap.Logger) error {
	m, err := migrations.Open(cfg.GetDSN(), log)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// CacheModule provides the report cache. The "none" driver yields a nil
// cache, which disables report caching.
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config) (redis.UniversalClient, error) {
		if cfg.Cache.Driver != "redis" {
			return nil, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		return client, nil
	},
	func(lc fx.Lifecycle, cfg *config.Config, client redis.UniversalClient, log *zap.Logger) outbound.CacheRepository {
		switch cfg.Cache.Driver {
		case "redis":
			log.Info("Using Redis report cache", zap.String("addr", cfg.RedisAddr()))
			return redisstore.NewCacheRepository(client, cfg.Redis.KeyPrefix, log)
		case "none":
			log.Info("Report cache disabled")
			return nil
		default:
			cache := memory.NewCacheRepository(time.Minute)
			lc.Append(fx.Hook{OnStop: func(context.Context) error {
				cache.Close()
				return nil
			}})
			return cache
		}
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(gormstore.NewFoodCatalog, fx.As(new(outbound.FoodCatalog))),
	fx.Annotate(gormstore.NewRecipeRepository, fx.As(new(outbound.RecipeRepository))),
	fx.Annotate(gormstore.NewPlanRepository, fx.As(new(outbound.PlanRepository))),
	fx.Annotate(gormstore.NewMealOptionRepository, fx.As(new(outbound.MealOptionRepository))),
	fx.Annotate(gormstore.NewAccessPolicy, fx.As(new(outbound.AccessPolicy))),
)

// ServiceDeps groups the ports both services draw from
type ServiceDeps struct {
	fx.In

	Foods   outbound.FoodCatalog
	Recipes outbound.RecipeRepository
	Plans   outbound.PlanRepository
	Options outbound.MealOptionRepository
	Access  outbound.AccessPolicy
	Cache   outbound.CacheRepository
	Metrics outbound.EngineMetrics
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(deps ServiceDeps, cfg *config.Config, log *zap.Logger) inbound.NutritionService {
		return appnutrition.NewService(appnutrition.Dependencies{
			Foods:   deps.Foods,
			Recipes: deps.Recipes,
			Plans:   deps.Plans,
			Access:  deps.Access,
			Cache:   deps.Cache,
			Metrics: deps.Metrics,
		}, EngineConfig(cfg), log)
	},
	func(deps ServiceDeps, cfg *config.Config, log *zap.Logger) inbound.MealOptionService {
		return mealoption.NewService(mealoption.Dependencies{
			Options: deps.Options,
			Plans:   deps.Plans,
			Foods:   deps.Foods,
			Recipes: deps.Recipes,
			Access:  deps.Access,
			Cache:   deps.Cache,
			Metrics: deps.Metrics,
		}, cfg.Cache.ReportTTL, log)
	},
	catalog.NewImporter,
)

// EngineConfig maps the loaded tuning onto the nutrition service config
func EngineConfig(cfg *config.Config) appnutrition.Config {
	e := cfg.Engine
	out := appnutrition.DefaultConfig()
	out.Search = optimization.SearchConfig{
		Weights:              e.Search.Weights,
		CompatibilityPenalty: e.Search.CompatibilityPenalty,
		MaxIterations:        e.Search.MaxIterations,
		PortionGrams:         e.Search.PortionGrams,
		Tolerance:            e.Search.Tolerance,
		Bounds:               e.Search.Bounds,
		RestartFactor:        e.Search.RestartFactor,
	}
	out.Proportion = optimization.ProportionConfig{
		Bounds:        e.Proportion.Bounds,
		Tolerance:     e.Proportion.Tolerance,
		MaxIterations: e.Proportion.MaxIterations,
	}
	out.Variation = optimization.VariationConfig{
		SubstitutionRate: e.Variation.SubstitutionRate,
		PerturbMin:       e.Variation.PerturbMin,
		PerturbMax:       e.Variation.PerturbMax,
		MaxRetries:       e.Variation.MaxRetries,
	}
	out.Compliance = analysis.ComplianceConfig{
		LowPct:            e.Compliance.LowPct,
		HighPct:           e.Compliance.HighPct,
		HighVariabilityCV: e.Compliance.HighVariabilityCV,
	}
	out.ReportTTL = cfg.Cache.ReportTTL
	return out
}

// HealthModule provides the health check with one checker per backing store
var HealthModule = fx.Provide(
	func(cfg *config.Config, reg prometheus.Registerer, db *gorm.DB, foods outbound.FoodCatalog, client redis.UniversalClient, log *zap.Logger) (*healthcheck.HealthCheck, error) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		metrics := healthcheck.NewHealthMetrics(cfg.Monitoring.Namespace, reg)
		hc := healthcheck.New(cfg.App.Version, log)
		hc.Register("database", healthcheck.WithMetrics(metrics, healthcheck.NewDatabaseChecker(sqlDB)))
		hc.Register("catalog", healthcheck.WithMetrics(metrics, healthcheck.NewCatalogChecker(foods)))
		if client != nil {
			hc.Register("redis", healthcheck.WithMetrics(metrics, healthcheck.NewRedisChecker(client)))
		}
		return hc, nil
	},
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(RegisterLifecycleHooks)

// RegisterLifecycleHooks logs start and stop and flushes the logger
func RegisterLifecycleHooks(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting nutriplan engine",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
				zap.String("cache", cfg.Cache.Driver),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down nutriplan engine")
			_ = log.Sync()
			return nil
		},
	})
}
