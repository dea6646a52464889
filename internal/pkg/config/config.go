package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	OpenMeteo OpenMeteoConfig `mapstructure:"openmeteo"`
	Authentik AuthentikConfig `mapstructure:"authentik"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	BodyLimit    int    `mapstructure:"body_limit"`
	CORSOrigins  string `mapstructure:"cors_origins"`
	AuthEnabled  bool   `mapstructure:"auth_enabled"`
}

// Cache backends.
const (
	BackendValkey   = "valkey"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

type CacheConfig struct {
	Backend    string `mapstructure:"backend"`
	Dir        string `mapstructure:"dir"`
	File       string `mapstructure:"file"`
	ExpiryDays int    `mapstructure:"expiry_days"`
}

type ValkeyConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	Namespace string        `mapstructure:"namespace"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// DSN returns URL when set, otherwise builds one from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type OpenMeteoConfig struct {
	GeocodingURL   string        `mapstructure:"geocoding_url"`
	WeatherURL     string        `mapstructure:"weather_url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	Burst          int           `mapstructure:"burst"`
	ResultCount    int           `mapstructure:"result_count"`
}

type AuthentikConfig struct {
	APIURL   string        `mapstructure:"api_url"`
	APIToken string        `mapstructure:"api_token"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort        string        `mapstructure:"host_port"`
	Namespace       string        `mapstructure:"namespace"`
	TaskQueue       string        `mapstructure:"task_queue"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env files, an optional config file and
// environment variables, in increasing order of precedence.
func Load(service string) (*Config, error) {
	return LoadFile(service, "")
}

// LoadFile is Load with an explicit config file path. An empty path searches
// for config.yaml in . and ./configs.
func LoadFile(service, path string) (*Config, error) {
	// .env files only fill variables that are not already set.
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v, service)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: METEOMCP_CACHE_BACKEND → cache.backend
	v.SetEnvPrefix("METEOMCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 35)
	v.SetDefault("server.body_limit", 64*1024)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("server.auth_enabled", false)

	v.SetDefault("cache.backend", BackendValkey)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.file", "location_cache.json")
	v.SetDefault("cache.expiry_days", 30)

	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.password", "")
	v.SetDefault("valkey.db", 0)
	v.SetDefault("valkey.namespace", "weather:location")
	v.SetDefault("valkey.timeout", 5*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "meteomcp")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "meteomcp")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)

	v.SetDefault("openmeteo.geocoding_url", "https://geocoding-api.open-meteo.com/v1/search")
	v.SetDefault("openmeteo.weather_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("openmeteo.connect_timeout", 10*time.Second)
	v.SetDefault("openmeteo.timeout", 30*time.Second)
	v.SetDefault("openmeteo.rate_per_second", 10.0)
	v.SetDefault("openmeteo.burst", 5)
	v.SetDefault("openmeteo.result_count", 10)

	v.SetDefault("authentik.api_url", "")
	v.SetDefault("authentik.api_token", "")
	v.SetDefault("authentik.cache_ttl", 60*time.Second)
	v.SetDefault("authentik.timeout", 10*time.Second)

	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)

	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "location-cache-maintenance")
	v.SetDefault("temporal.janitor_interval", 6*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	switch c.Cache.Backend {
	case BackendValkey:
		if c.Valkey.Addr == "" {
			errs = append(errs, "valkey.addr is required for the valkey backend")
		}
	case BackendPostgres:
		if c.Database.URL == "" && (c.Database.Host == "" || c.Database.DBName == "") {
			errs = append(errs, "database.url or database.host and database.dbname are required for the postgres backend")
		}
	case BackendFile, BackendNone:
	default:
		errs = append(errs, fmt.Sprintf("cache.backend must be valkey, file, postgres or none, got %q", c.Cache.Backend))
	}
	if c.Cache.ExpiryDays < 1 || c.Cache.ExpiryDays > 365 {
		errs = append(errs, fmt.Sprintf("cache.expiry_days must be 1-365, got %d", c.Cache.ExpiryDays))
	}

	if c.OpenMeteo.GeocodingURL == "" {
		errs = append(errs, "openmeteo.geocoding_url is required")
	}
	if c.OpenMeteo.WeatherURL == "" {
		errs = append(errs, "openmeteo.weather_url is required")
	}
	if c.OpenMeteo.Timeout <= 0 || c.OpenMeteo.ConnectTimeout <= 0 {
		errs = append(errs, "openmeteo timeouts must be positive")
	}
	if c.OpenMeteo.ResultCount <= 0 {
		errs = append(errs, "openmeteo.result_count must be positive")
	}

	if c.Server.AuthEnabled && c.Authentik.APIURL == "" {
		errs = append(errs, "authentik.api_url is required when server.auth_enabled is set")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats.enabled is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
