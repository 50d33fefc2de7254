package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Catalog    CatalogConfig    `yaml:"catalog" mapstructure:"catalog"`
	Scorer     ScorerConfig     `yaml:"scorer" mapstructure:"scorer"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" mapstructure:"telemetry"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// CatalogConfig configures the product catalog cache and seed data.
type CatalogConfig struct {
	CacheTTLSecs int    `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	RedisAddr    string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisKey     string `yaml:"redis_key" mapstructure:"redis_key"`
	RedisTTLSecs int    `yaml:"redis_ttl_secs" mapstructure:"redis_ttl_secs"`
	SeedFile     string `yaml:"seed_file" mapstructure:"seed_file"`
	// SourceURL, when set, is polled by the server and upserted into the store.
	SourceURL        string `yaml:"source_url" mapstructure:"source_url"`
	SyncIntervalSecs int    `yaml:"sync_interval_secs" mapstructure:"sync_interval_secs"`
}

// ScorerConfig selects the scoring policy and tie-break rule.
type ScorerConfig struct {
	Policy   string `yaml:"policy" mapstructure:"policy"`
	TieBreak string `yaml:"tie_break" mapstructure:"tie_break"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port             int      `yaml:"port" mapstructure:"port"`
	ReadTimeoutSecs  int      `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	WriteTimeoutSecs int      `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
	CORSOrigins      []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// RateLimitConfig configures the per-client request limiter.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Burst             int `yaml:"burst" mapstructure:"burst"`
}

// TelemetryConfig configures endpoint usage persistence.
type TelemetryConfig struct {
	FlushEvery int `yaml:"flush_every" mapstructure:"flush_every"`
}

// MonitoringConfig configures background alerting over endpoint telemetry.
type MonitoringConfig struct {
	Enabled            bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL         string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs  int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	ErrorRateThreshold float64 `yaml:"error_rate_threshold" mapstructure:"error_rate_threshold"`
	LatencyThresholdMs float64 `yaml:"latency_threshold_ms" mapstructure:"latency_threshold_ms"`
	MinRequests        int64   `yaml:"min_requests" mapstructure:"min_requests"`
	AlertCooldownSecs  int     `yaml:"alert_cooldown_secs" mapstructure:"alert_cooldown_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "invest.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("catalog.cache_ttl_secs", 300)
	v.SetDefault("catalog.redis_key", "invest:catalog")
	v.SetDefault("catalog.redis_ttl_secs", 300)
	v.SetDefault("catalog.sync_interval_secs", 900)
	v.SetDefault("scorer.policy", "weighted")
	v.SetDefault("scorer.tie_break", "first")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_secs", 15)
	v.SetDefault("server.write_timeout_secs", 30)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("rate_limit.requests_per_minute", 60)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("telemetry.flush_every", 10)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.error_rate_threshold", 0.2)
	v.SetDefault("monitoring.latency_threshold_ms", 500.0)
	v.SetDefault("monitoring.min_requests", 20)
	v.SetDefault("monitoring.alert_cooldown_secs", 3600)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the values required by mode are present and sane.
// Modes: "serve", "simulate", "store".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, "rate_limit.requests_per_minute must be > 0")
		}
		if c.RateLimit.Burst <= 0 {
			errs = append(errs, "rate_limit.burst must be > 0")
		}
		if c.Telemetry.FlushEvery <= 0 {
			errs = append(errs, "telemetry.flush_every must be > 0")
		}
		if c.Monitoring.Enabled && c.Monitoring.WebhookURL == "" {
			errs = append(errs, "monitoring.webhook_url is required when monitoring is enabled")
		}
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateScorer()...)
	case "simulate":
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateScorer()...)
	case "store":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Catalog.CacheTTLSecs < 0 {
		errs = append(errs, "catalog.cache_ttl_secs must be >= 0")
	}
	if c.Catalog.SourceURL != "" && c.Catalog.SyncIntervalSecs <= 0 {
		errs = append(errs, "catalog.sync_interval_secs must be > 0 when catalog.source_url is set")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func (c *Config) validateScorer() []string {
	var errs []string
	switch c.Scorer.Policy {
	case "weighted", "type_bonus":
	default:
		errs = append(errs, fmt.Sprintf("scorer.policy must be weighted or type_bonus, got %q", c.Scorer.Policy))
	}
	switch c.Scorer.TieBreak {
	case "first", "lowest_id":
	default:
		errs = append(errs, fmt.Sprintf("scorer.tie_break must be first or lowest_id, got %q", c.Scorer.TieBreak))
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
