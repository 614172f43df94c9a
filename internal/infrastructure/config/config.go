// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nutriplan/engine/internal/domain/optimization"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver             string        `mapstructure:"driver"`
	Path               string        `mapstructure:"path"`
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Database           string        `mapstructure:"database"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	SSLMode            string        `mapstructure:"ssl_mode"`
	ReadReplicas       []string      `mapstructure:"read_replicas"`
	LoadBalancePolicy  string        `mapstructure:"load_balance_policy"`
	MaxOpenConns       int           `mapstructure:"max_open_conns"`
	MaxIdleConns       int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel           string        `mapstructure:"log_level"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
	AutoMigrate        bool          `mapstructure:"auto_migrate"`
	Seed               bool          `mapstructure:"seed"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// CacheConfig selects the report cache backend
type CacheConfig struct {
	Driver    string        `mapstructure:"driver"` // memory, redis or none
	ReportTTL time.Duration `mapstructure:"report_ttl"`
}

// EngineConfig tunes the analysis and optimization components
type EngineConfig struct {
	Search     SearchConfig     `mapstructure:"search"`
	Proportion ProportionConfig `mapstructure:"proportion"`
	Variation  VariationConfig  `mapstructure:"variation"`
	Compliance ComplianceConfig `mapstructure:"compliance"`
}

// SearchConfig tunes combination search
type SearchConfig struct {
	Weights              optimization.Weights `mapstructure:"weights"`
	CompatibilityPenalty float64              `mapstructure:"compatibility_penalty"`
	MaxIterations        int                  `mapstructure:"max_iterations"`
	PortionGrams         float64              `mapstructure:"portion_grams"`
	Tolerance            float64              `mapstructure:"tolerance"`
	Bounds               optimization.Bounds  `mapstructure:"bounds"`
	RestartFactor        int                  `mapstructure:"restart_factor"`
}

// ProportionConfig tunes the proportion optimizer
type ProportionConfig struct {
	Bounds        optimization.Bounds `mapstructure:"bounds"`
	Tolerance     float64             `mapstructure:"tolerance"`
	MaxIterations int                 `mapstructure:"max_iterations"`
}

// VariationConfig tunes recipe variations
type VariationConfig struct {
	SubstitutionRate float64 `mapstructure:"substitution_rate"`
	PerturbMin       float64 `mapstructure:"perturb_min"`
	PerturbMax       float64 `mapstructure:"perturb_max"`
	MaxRetries       int     `mapstructure:"max_retries"`
}

// ComplianceConfig holds the compliance bands in percent
type ComplianceConfig struct {
	LowPct            float64 `mapstructure:"low_pct"`
	HighPct           float64 `mapstructure:"high_pct"`
	HighVariabilityCV float64 `mapstructure:"high_variability_cv"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics bool   `mapstructure:"enable_metrics"`
	Namespace     string `mapstructure:"namespace"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/nutriplan")
	}

	v.SetEnvPrefix("NUTRIPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// defaults cover a missing file
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "nutriplan")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "nutriplan.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "nutriplan")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.load_balance_policy", "random")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_query_threshold", "100ms")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed", false)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.key_prefix", "nutriplan:")

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.report_ttl", "10m")

	search := optimization.DefaultSearchConfig()
	v.SetDefault("engine.search.weights.calories", search.Weights.Calories)
	v.SetDefault("engine.search.weights.protein", search.Weights.Protein)
	v.SetDefault("engine.search.weights.carbohydrate", search.Weights.Carbohydrate)
	v.SetDefault("engine.search.weights.fat", search.Weights.Fat)
	v.SetDefault("engine.search.compatibility_penalty", search.CompatibilityPenalty)
	v.SetDefault("engine.search.max_iterations", search.MaxIterations)
	v.SetDefault("engine.search.portion_grams", search.PortionGrams)
	v.SetDefault("engine.search.tolerance", search.Tolerance)
	v.SetDefault("engine.search.bounds.min", search.Bounds.Min)
	v.SetDefault("engine.search.bounds.max", search.Bounds.Max)
	v.SetDefault("engine.search.restart_factor", search.RestartFactor)

	proportion := optimization.DefaultProportionConfig()
	v.SetDefault("engine.proportion.bounds.min", proportion.Bounds.Min)
	v.SetDefault("engine.proportion.bounds.max", proportion.Bounds.Max)
	v.SetDefault("engine.proportion.tolerance", proportion.Tolerance)
	v.SetDefault("engine.proportion.max_iterations", proportion.MaxIterations)

	variation := optimization.DefaultVariationConfig()
	v.SetDefault("engine.variation.substitution_rate", variation.SubstitutionRate)
	v.SetDefault("engine.variation.perturb_min", variation.PerturbMin)
	v.SetDefault("engine.variation.perturb_max", variation.PerturbMax)
	v.SetDefault("engine.variation.max_retries", variation.MaxRetries)

	v.SetDefault("engine.compliance.low_pct", 90)
	v.SetDefault("engine.compliance.high_pct", 110)
	v.SetDefault("engine.compliance.high_variability_cv", 25)

	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.namespace", "nutriplan")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("database.port must be between 1 and 65535")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	switch c.Cache.Driver {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.driver must be memory, redis or none, got %q", c.Cache.Driver)
	}
	if c.Cache.ReportTTL < 0 {
		return fmt.Errorf("cache.report_ttl must not be negative")
	}

	e := c.Engine
	if err := e.Search.Bounds.Validate(); err != nil {
		return fmt.Errorf("engine.search.bounds: %w", err)
	}
	if err := e.Proportion.Bounds.Validate(); err != nil {
		return fmt.Errorf("engine.proportion.bounds: %w", err)
	}
	if e.Search.MaxIterations < 1 || e.Proportion.MaxIterations < 1 {
		return fmt.Errorf("engine max_iterations must be positive")
	}
	if e.Search.Tolerance <= 0 || e.Proportion.Tolerance <= 0 {
		return fmt.Errorf("engine tolerance must be positive")
	}
	if e.Variation.PerturbMin < 0 || e.Variation.PerturbMax < e.Variation.PerturbMin {
		return fmt.Errorf("engine.variation perturbation range is invalid")
	}
	if e.Variation.SubstitutionRate < 0 || e.Variation.SubstitutionRate > 1 {
		return fmt.Errorf("engine.variation.substitution_rate must be within [0, 1]")
	}
	if e.Compliance.LowPct <= 0 || e.Compliance.HighPct <= e.Compliance.LowPct {
		return fmt.Errorf("engine.compliance bands must satisfy 0 < low_pct < high_pct")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// GetDSN returns the postgres connection string for the primary
func (c *Config) GetDSN() string {
	return c.dsnFor(c.Database.Host)
}

// ReplicaDSNs returns the connection strings of the read replicas
func (c *Config) ReplicaDSNs() []string {
	out := make([]string, 0, len(c.Database.ReadReplicas))
	for _, host := range c.Database.ReadReplicas {
		out = append(out, c.dsnFor(host))
	}
	return out
}

func (c *Config) dsnFor(host string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// RedisAddr returns host:port of the redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
