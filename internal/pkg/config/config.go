package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	Cluster   ClusterConfig   `mapstructure:"cluster"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

// ProvidersConfig carries the third-party API credentials. Geocoder selects
// which place-search backend serves /v1/geocode: "mapbox" or "google".
type ProvidersConfig struct {
	TomTomKey       string `mapstructure:"tomtom_key"`
	MapboxToken     string `mapstructure:"mapbox_token"`
	GooglePlacesKey string `mapstructure:"google_places_key"`
	Geocoder        string `mapstructure:"geocoder"`
}

// PlannerConfig tunes the segment planner. Intervals are milliseconds.
type PlannerConfig struct {
	MaxDepth              int `mapstructure:"max_depth"`
	SamplePoints          int `mapstructure:"sample_points"`
	MaxSearchRadiusMeters int `mapstructure:"max_search_radius_meters"`
	SearchIntervalMS      int `mapstructure:"search_interval_ms"`
	RetryBackoffMS        int `mapstructure:"retry_backoff_ms"`
	PlanTimeoutSeconds    int `mapstructure:"plan_timeout_seconds"`
	CacheTTLSeconds       int `mapstructure:"cache_ttl_seconds"`
}

type ClusterConfig struct {
	MaxNodes int `mapstructure:"max_nodes"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "voltroute")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "voltroute")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("providers.geocoder", "mapbox")
	v.SetDefault("planner.max_depth", 5)
	v.SetDefault("planner.sample_points", 5)
	v.SetDefault("planner.max_search_radius_meters", 30000)
	v.SetDefault("planner.search_interval_ms", 1500)
	v.SetDefault("planner.retry_backoff_ms", 5000)
	v.SetDefault("planner.plan_timeout_seconds", 120)
	v.SetDefault("planner.cache_ttl_seconds", 300)
	v.SetDefault("cluster.max_nodes", 150)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("sentry.environment", "production")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: VOLTROUTE_PROVIDERS_TOMTOM_KEY → providers.tomtom_key
	v.SetEnvPrefix("VOLTROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	switch c.Providers.Geocoder {
	case "mapbox", "google":
	default:
		errs = append(errs, fmt.Sprintf("providers.geocoder must be mapbox or google, got %q", c.Providers.Geocoder))
	}
	if c.Planner.MaxDepth <= 0 {
		errs = append(errs, "planner.max_depth must be positive")
	}
	if c.Planner.SamplePoints <= 0 {
		errs = append(errs, "planner.sample_points must be positive")
	}
	if c.Cluster.MaxNodes <= 0 {
		errs = append(errs, "cluster.max_nodes must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
