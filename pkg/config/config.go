package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/jobboard/pkg/auth"
	"github.com/platinummonkey/jobboard/pkg/database"
	"github.com/platinummonkey/jobboard/pkg/institutions"
	"github.com/platinummonkey/jobboard/pkg/middleware"
	"github.com/platinummonkey/jobboard/pkg/notify"
	"github.com/platinummonkey/jobboard/pkg/observability"
)

// ConfigFileEnv names the variable pointing at an optional YAML file
const ConfigFileEnv = "JOBBOARD_CONFIG_FILE"

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Auth          AuthConfig          `yaml:"auth"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Cache         CacheConfig         `yaml:"cache"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	URL         string        `yaml:"url"`
	MaxConns    int           `yaml:"max_conns"`
	MinConns    int           `yaml:"min_conns"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxLifetime time.Duration `yaml:"max_lifetime"`
	MaxIdleTime time.Duration `yaml:"max_idle_time"`
	AutoMigrate bool          `yaml:"auto_migrate"`
}

// RedisConfig holds Redis settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether a Redis address is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// NotificationsConfig selects the notification gateways
type NotificationsConfig struct {
	WebhookURL      string             `yaml:"webhook_url"`
	WebhookSecret   string             `yaml:"webhook_secret"`
	RedisChannel    string             `yaml:"redis_channel"`
	Retry           notify.RetryConfig `yaml:"retry"`
	Async           bool               `yaml:"async"`
	DispatchTimeout time.Duration      `yaml:"dispatch_timeout"`
}

// CacheConfig sizes in-process caches
type CacheConfig struct {
	InstitutionSize int           `yaml:"institution_size"`
	InstitutionTTL  time.Duration `yaml:"institution_ttl"`
}

// RateLimitConfig configures per-caller request limits
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerWindow int           `yaml:"requests_per_window"`
	Window            time.Duration `yaml:"window"`
	Burst             int           `yaml:"burst"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string                   `yaml:"log_level"`
	MetricsEnabled bool                     `yaml:"metrics_enabled"`
	OTel           observability.OTelConfig `yaml:"otel"`
}

// Default returns the built-in configuration
func Default() *Config {
	cache := institutions.DefaultCacheConfig()
	limits := middleware.DefaultRateLimitConfig()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Database: DatabaseConfig{
			MaxConns:    25,
			MinConns:    5,
			Timeout:     5 * time.Second,
			MaxLifetime: 30 * time.Minute,
			MaxIdleTime: 5 * time.Minute,
		},
		Auth: AuthConfig{
			Issuer:   auth.DefaultIssuer,
			TokenTTL: auth.DefaultTokenTTL,
		},
		Notifications: NotificationsConfig{
			RedisChannel:    notify.DefaultChannel,
			Retry:           notify.DefaultRetryConfig(),
			Async:           true,
			DispatchTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			InstitutionSize: cache.Size,
			InstitutionTTL:  cache.TTL,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerWindow: limits.RequestsPerWindow,
			Window:            limits.WindowDuration,
			Burst:             limits.BurstSize,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			MetricsEnabled: true,
			OTel: observability.OTelConfig{
				Endpoint:       "localhost:4317",
				ServiceName:    "jobboard",
				ServiceVersion: "1.0.0",
				Insecure:       true,
			},
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by JOBBOARD_CONFIG_FILE, then JOBBOARD_* environment variables, in
// increasing precedence.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	s := &c.Server
	s.Host = getEnv("JOBBOARD_HOST", s.Host)
	s.Port = getEnv("JOBBOARD_PORT", s.Port)
	s.ReadTimeout = getEnvDuration("JOBBOARD_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("JOBBOARD_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("JOBBOARD_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("JOBBOARD_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.AllowedOrigins = getEnvList("JOBBOARD_ALLOWED_ORIGINS", s.AllowedOrigins)

	d := &c.Database
	d.URL = getEnv("JOBBOARD_DATABASE_URL", d.URL)
	d.MaxConns = getEnvInt("JOBBOARD_DATABASE_MAX_CONNS", d.MaxConns)
	d.MinConns = getEnvInt("JOBBOARD_DATABASE_MIN_CONNS", d.MinConns)
	d.Timeout = getEnvDuration("JOBBOARD_DATABASE_TIMEOUT", d.Timeout)
	d.AutoMigrate = getEnvBool("JOBBOARD_DATABASE_AUTO_MIGRATE", d.AutoMigrate)

	r := &c.Redis
	r.Addr = getEnv("JOBBOARD_REDIS_ADDR", r.Addr)
	r.Password = getEnv("JOBBOARD_REDIS_PASSWORD", r.Password)
	r.DB = getEnvInt("JOBBOARD_REDIS_DB", r.DB)

	a := &c.Auth
	a.JWTSecret = getEnv("JOBBOARD_JWT_SECRET", a.JWTSecret)
	a.Issuer = getEnv("JOBBOARD_JWT_ISSUER", a.Issuer)
	a.TokenTTL = getEnvDuration("JOBBOARD_TOKEN_TTL", a.TokenTTL)

	n := &c.Notifications
	n.WebhookURL = getEnv("JOBBOARD_WEBHOOK_URL", n.WebhookURL)
	n.WebhookSecret = getEnv("JOBBOARD_WEBHOOK_SECRET", n.WebhookSecret)
	n.RedisChannel = getEnv("JOBBOARD_NOTIFY_CHANNEL", n.RedisChannel)
	n.Async = getEnvBool("JOBBOARD_NOTIFY_ASYNC", n.Async)

	c.Cache.InstitutionSize = getEnvInt("JOBBOARD_INSTITUTION_CACHE_SIZE", c.Cache.InstitutionSize)
	c.Cache.InstitutionTTL = getEnvDuration("JOBBOARD_INSTITUTION_CACHE_TTL", c.Cache.InstitutionTTL)

	c.RateLimit.Enabled = getEnvBool("JOBBOARD_RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerWindow = getEnvInt("JOBBOARD_RATE_LIMIT_REQUESTS", c.RateLimit.RequestsPerWindow)

	o := &c.Observability
	o.LogLevel = getEnv("JOBBOARD_LOG_LEVEL", o.LogLevel)
	o.MetricsEnabled = getEnvBool("JOBBOARD_METRICS_ENABLED", o.MetricsEnabled)
	o.OTel.Enabled = getEnvBool("JOBBOARD_OTEL_ENABLED", o.OTel.Enabled)
	o.OTel.Endpoint = getEnv("JOBBOARD_OTEL_ENDPOINT", o.OTel.Endpoint)
	o.OTel.ServiceName = getEnv("JOBBOARD_OTEL_SERVICE_NAME", o.OTel.ServiceName)
	o.OTel.ServiceVersion = getEnv("JOBBOARD_OTEL_SERVICE_VERSION", o.OTel.ServiceVersion)
	o.OTel.Insecure = getEnvBool("JOBBOARD_OTEL_INSECURE", o.OTel.Insecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database URL is required"))
	}
	if len(c.Auth.JWTSecret) < auth.MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT secret must be at least %d bytes", auth.MinSecretLength))
	}
	if c.Notifications.WebhookURL != "" && c.Notifications.WebhookSecret == "" {
		errs = append(errs, errors.New("webhook secret is required when a webhook URL is set"))
	}
	if _, err := logrus.ParseLevel(c.Observability.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.Observability.LogLevel))
	}
	if c.Cache.InstitutionSize < 1 {
		errs = append(errs, errors.New("institution cache size must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerWindow < 1 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("rate limit requires positive requests and window"))
	}
	if c.Observability.OTel.Enabled {
		if c.Observability.OTel.Endpoint == "" {
			errs = append(errs, errors.New("OpenTelemetry endpoint is required when OTel is enabled"))
		}
		if c.Observability.OTel.ServiceName == "" {
			errs = append(errs, errors.New("OpenTelemetry service name is required when OTel is enabled"))
		}
	}

	return errors.Join(errs...)
}

// DatabaseConnection converts the database section for database.Open
func (c *Config) DatabaseConnection() database.ConnectionConfig {
	return database.ConnectionConfig{
		URL:         c.Database.URL,
		MaxConns:    c.Database.MaxConns,
		MinConns:    c.Database.MinConns,
		Timeout:     c.Database.Timeout,
		MaxLifetime: c.Database.MaxLifetime,
		MaxIdleTime: c.Database.MaxIdleTime,
	}
}

// InstitutionCache converts the cache section for institutions.NewCachedStore
func (c *Config) InstitutionCache() institutions.CacheConfig {
	return institutions.CacheConfig{Size: c.Cache.InstitutionSize, TTL: c.Cache.InstitutionTTL}
}

// RateLimits converts the rate limit section for the middleware limiters
func (c *Config) RateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		RequestsPerWindow: c.RateLimit.RequestsPerWindow,
		WindowDuration:    c.RateLimit.Window,
		BurstSize:         c.RateLimit.Burst,
	}
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
