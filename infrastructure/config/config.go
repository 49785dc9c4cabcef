// Package config loads the admin service configuration from defaults, an
// optional YAML or TOML file named by CONFIG_FILE, and environment variables,
// in increasing order of priority.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Environment names
const (
	Development = "development"
	Staging     = "staging"
	Production  = "production"
)

// Config holds all application configuration
type Config struct {
	Environment   string `yaml:"environment" toml:"environment"`
	ServerAddress string `yaml:"server_address" toml:"server_address"`
	LogLevel      string `yaml:"log_level" toml:"log_level"`

	Cache    CacheConfig    `yaml:"cache" toml:"cache"`
	Query    QueryConfig    `yaml:"query" toml:"query"`
	Snapshot SnapshotConfig `yaml:"snapshot" toml:"snapshot"`
	Tracing  TracingConfig  `yaml:"tracing" toml:"tracing"`
	Features FeatureFlags   `yaml:"features" toml:"features"`

	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`

	// Set from the environment only
	IsLambda   bool   `yaml:"-" toml:"-"`
	ConfigFile string `yaml:"-" toml:"-"`
}

// CacheConfig selects and tunes the cache backend
type CacheConfig struct {
	RESTURL   string `yaml:"rest_url" toml:"rest_url"`
	RESTToken string `yaml:"rest_token" toml:"rest_token"`
	URL       string `yaml:"url" toml:"url"`
	KeyPrefix string `yaml:"key_prefix" toml:"key_prefix"`

	RESTTimeoutMillis     int `yaml:"rest_timeout_ms" toml:"rest_timeout_ms"`
	RESTMaxAttempts       int `yaml:"rest_max_attempts" toml:"rest_max_attempts"`
	BreakerFailures       int `yaml:"breaker_failures" toml:"breaker_failures"`
	BreakerTimeoutSeconds int `yaml:"breaker_timeout_seconds" toml:"breaker_timeout_seconds"`
}

// QueryConfig holds read path TTLs
type QueryConfig struct {
	ListTTLSeconds    int `yaml:"list_ttl_seconds" toml:"list_ttl_seconds"`
	MetricsTTLSeconds int `yaml:"metrics_ttl_seconds" toml:"metrics_ttl_seconds"`
	RecentOrders      int `yaml:"recent_orders" toml:"recent_orders"`
}

// SnapshotConfig configures the local snapshot producer
type SnapshotConfig struct {
	File                   string `yaml:"file" toml:"file"`
	MaxAgeSeconds          int    `yaml:"max_age_seconds" toml:"max_age_seconds"`
	RefreshIntervalSeconds int    `yaml:"refresh_interval_seconds" toml:"refresh_interval_seconds"`
}

// TracingConfig configures the OTLP exporter
type TracingConfig struct {
	Endpoint   string  `yaml:"endpoint" toml:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" toml:"sample_rate"`
}

// FeatureFlags toggles optional behaviour
type FeatureFlags struct {
	EnableCORS      bool `yaml:"enable_cors" toml:"enable_cors"`
	EnableMetrics   bool `yaml:"enable_metrics" toml:"enable_metrics"`
	EnableTracing   bool `yaml:"enable_tracing" toml:"enable_tracing"`
	EnableHotReload bool `yaml:"enable_hot_reload" toml:"enable_hot_reload"`
}

// Defaults returns the configuration used when nothing else is set
func Defaults() *Config {
	return &Config{
		Environment:   Development,
		ServerAddress: ":8080",
		LogLevel:      "info",
		Cache: CacheConfig{
			RESTTimeoutMillis:     3000,
			RESTMaxAttempts:       3,
			BreakerFailures:       5,
			BreakerTimeoutSeconds: 30,
		},
		Query: QueryConfig{
			ListTTLSeconds:    45,
			MetricsTTLSeconds: 90,
			RecentOrders:      5,
		},
		Snapshot: SnapshotConfig{
			File:                   "fixtures/snapshot.yaml",
			MaxAgeSeconds:          300,
			RefreshIntervalSeconds: 60,
		},
		Tracing: TracingConfig{
			Endpoint:   "localhost:4317",
			SampleRate: 0.1,
		},
		Features: FeatureFlags{
			EnableCORS:      true,
			EnableMetrics:   true,
			EnableHotReload: true,
		},
		AllowedOrigins: []string{"*"},
	}
}

// LoadConfig loads configuration from CONFIG_FILE (if set) and the environment
func LoadConfig() (*Config, error) {
	return NewLoader().Load(os.Getenv("CONFIG_FILE"))
}

// applyEnv overlays environment variables. Unset variables keep the current value.
func applyEnv(cfg *Config) {
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", cfg.Environment))
	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.Cache.RESTURL = getEnv("CACHE_REST_URL", cfg.Cache.RESTURL)
	cfg.Cache.RESTToken = getEnv("CACHE_REST_TOKEN", cfg.Cache.RESTToken)
	cfg.Cache.URL = getEnv("CACHE_URL", cfg.Cache.URL)
	cfg.Cache.KeyPrefix = getEnv("CACHE_KEY_PREFIX", cfg.Cache.KeyPrefix)
	cfg.Cache.RESTTimeoutMillis = getEnvInt("CACHE_REST_TIMEOUT_MS", cfg.Cache.RESTTimeoutMillis)
	cfg.Cache.RESTMaxAttempts = getEnvInt("CACHE_REST_MAX_ATTEMPTS", cfg.Cache.RESTMaxAttempts)
	cfg.Cache.BreakerFailures = getEnvInt("CACHE_BREAKER_FAILURES", cfg.Cache.BreakerFailures)
	cfg.Cache.BreakerTimeoutSeconds = getEnvInt("CACHE_BREAKER_TIMEOUT_SECONDS", cfg.Cache.BreakerTimeoutSeconds)

	cfg.Query.ListTTLSeconds = getEnvInt("LIST_TTL_SECONDS", cfg.Query.ListTTLSeconds)
	cfg.Query.MetricsTTLSeconds = getEnvInt("METRICS_TTL_SECONDS", cfg.Query.MetricsTTLSeconds)
	cfg.Query.RecentOrders = getEnvInt("RECENT_ORDERS_LIMIT", cfg.Query.RecentOrders)

	cfg.Snapshot.File = getEnv("SNAPSHOT_FILE", cfg.Snapshot.File)
	cfg.Snapshot.MaxAgeSeconds = getEnvInt("SNAPSHOT_MAX_AGE_SECONDS", cfg.Snapshot.MaxAgeSeconds)
	cfg.Snapshot.RefreshIntervalSeconds = getEnvInt("SNAPSHOT_REFRESH_INTERVAL_SECONDS", cfg.Snapshot.RefreshIntervalSeconds)

	cfg.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SampleRate = getEnvFloat("TRACE_SAMPLE_RATE", cfg.Tracing.SampleRate)

	cfg.Features.EnableCORS = getEnvBool("ENABLE_CORS", cfg.Features.EnableCORS)
	cfg.Features.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.Features.EnableMetrics)
	cfg.Features.EnableTracing = getEnvBool("ENABLE_TRACING", cfg.Features.EnableTracing)
	cfg.Features.EnableHotReload = getEnvBool("ENABLE_HOT_RELOAD", cfg.Features.EnableHotReload)

	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	cfg.IsLambda = getEnvBool("IS_LAMBDA", getEnv("AWS_LAMBDA_FUNCTION_NAME", "") != "")
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("unknown ENVIRONMENT %q", c.Environment)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.Query.ListTTLSeconds <= 0 || c.Query.MetricsTTLSeconds <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.Snapshot.File == "" {
		return fmt.Errorf("SNAPSHOT_FILE is required")
	}
	if c.Snapshot.MaxAgeSeconds <= 0 || c.Snapshot.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("snapshot max age and refresh interval must be positive")
	}
	if (c.Cache.RESTURL == "") != (c.Cache.RESTToken == "") && c.IsProduction() {
		return fmt.Errorf("CACHE_REST_URL and CACHE_REST_TOKEN must be set together")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATE must be between 0 and 1")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// ListTTL is the list page cache TTL
func (c *Config) ListTTL() time.Duration {
	return time.Duration(c.Query.ListTTLSeconds) * time.Second
}

// MetricsTTL is the metrics scalar cache TTL
func (c *Config) MetricsTTL() time.Duration {
	return time.Duration(c.Query.MetricsTTLSeconds) * time.Second
}

// SnapshotMaxAge is the age past which a read triggers a snapshot refresh
func (c *Config) SnapshotMaxAge() time.Duration {
	return time.Duration(c.Snapshot.MaxAgeSeconds) * time.Second
}

// SnapshotRefreshInterval is the scheduler period
func (c *Config) SnapshotRefreshInterval() time.Duration {
	return time.Duration(c.Snapshot.RefreshIntervalSeconds) * time.Second
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	switch value {
	case "":
		return defaultValue
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
