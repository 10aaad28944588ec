package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const envPrefix = "AGENTMART_"

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Storage struct {
		Backend string `yaml:"backend"` // memory | redis | postgres | sqlite

		Postgres struct {
			DSN             string        `yaml:"dsn"`
			RequireTLS      bool          `yaml:"require_tls"`
			MaxConns        int32         `yaml:"max_conns"`
			MinConns        int32         `yaml:"min_conns"`
			MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
			PingTimeout     time.Duration `yaml:"ping_timeout"`
		} `yaml:"postgres"`

		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
	} `yaml:"storage"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
		// FallbackToMemory keeps the process up on an unreachable Redis.
		FallbackToMemory bool `yaml:"fallback_to_memory"`
	} `yaml:"redis"`

	Session struct {
		CookieName string        `yaml:"cookie_name"`
		MaxAge     time.Duration `yaml:"max_age"`
		SameSite   string        `yaml:"same_site"`   // lax | strict | none
		SecureMode string        `yaml:"secure_mode"` // auto | always | never
	} `yaml:"session"`

	Edge struct {
		SignInPath        string            `yaml:"signin_path"`
		PublicRoutes      []string          `yaml:"public_routes"`
		AuthRoutes        []string          `yaml:"auth_routes"`
		ProtectedPrefixes []string          `yaml:"protected_prefixes"`
		RolePrefixes      map[string]string `yaml:"role_prefixes"`
		MaxHops           int               `yaml:"max_hops"`
		HopTokenTTL       time.Duration     `yaml:"hop_token_ttl"`
		// HopSecret signs redirect-hop tokens. Empty means a random
		// per-process key.
		HopSecret string `yaml:"hop_secret"`
	} `yaml:"edge"`

	Auth struct {
		BcryptCost int `yaml:"bcrypt_cost"`

		SeedAdmin struct {
			Email    string `yaml:"email"`
			Password string `yaml:"password"`
			Name     string `yaml:"name"`
		} `yaml:"seed_admin"`
	} `yaml:"auth"`

	Cache struct {
		StatsTTL time.Duration `yaml:"stats_ttl"`
	} `yaml:"cache"`

	Monitoring struct {
		PrometheusEnabled bool   `yaml:"prometheus_enabled"`
		MetricsPath       string `yaml:"metrics_path"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled        bool    `yaml:"enabled"`
		JaegerEndpoint string  `yaml:"jaeger_endpoint"`
		SampleRate     float64 `yaml:"sample_rate"`
		Environment    string  `yaml:"environment"`
	} `yaml:"tracing"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"` // global concurrent HTTP requests
		} `yaml:"http"`

		// Auth applies to POST /signin and POST /signup.
		Auth struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
		} `yaml:"auth"`
	} `yaml:"rate_limiting"`
}

var (
	backends    = map[string]bool{"memory": true, "redis": true, "postgres": true, "sqlite": true}
	sameSites   = map[string]bool{"lax": true, "strict": true, "none": true}
	secureModes = map[string]bool{"auto": true, "always": true, "never": true}
	logLevels   = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	roleNames   = map[string]bool{"enterprise": true, "creator": true, "admin": true}
)

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Logging
	if !logLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of debug|info|warn|error, got %q", c.Logging.Level)
	}

	// Storage
	if !backends[c.Storage.Backend] {
		return fmt.Errorf("storage.backend must be one of memory|redis|postgres|sqlite, got %q", c.Storage.Backend)
	}
	switch c.Storage.Backend {
	case "postgres":
		if strings.TrimSpace(c.Storage.Postgres.DSN) == "" {
			return fmt.Errorf("storage.postgres.dsn must not be empty when storage.backend=postgres")
		}
		if c.Storage.Postgres.MaxConns < 0 || c.Storage.Postgres.MinConns < 0 {
			return fmt.Errorf("storage.postgres pool sizes must be >= 0")
		}
		if c.Storage.Postgres.MaxConns > 0 && c.Storage.Postgres.MinConns > c.Storage.Postgres.MaxConns {
			return fmt.Errorf("storage.postgres.min_conns must be <= max_conns")
		}
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path must not be empty when storage.backend=sqlite")
		}
	case "redis":
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when storage.backend=redis")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when storage.backend=redis")
		}
	}

	// Session
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name must not be empty")
	}
	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("session.max_age must be > 0")
	}
	if !sameSites[strings.ToLower(c.Session.SameSite)] {
		return fmt.Errorf("session.same_site must be one of lax|strict|none, got %q", c.Session.SameSite)
	}
	if !secureModes[c.Session.SecureMode] {
		return fmt.Errorf("session.secure_mode must be one of auto|always|never, got %q", c.Session.SecureMode)
	}
	if strings.EqualFold(c.Session.SameSite, "none") && c.Session.SecureMode == "never" {
		return fmt.Errorf("session.same_site=none requires a secure cookie")
	}

	// Edge
	if !strings.HasPrefix(c.Edge.SignInPath, "/") {
		return fmt.Errorf("edge.signin_path must be an absolute path")
	}
	for _, p := range c.Edge.ProtectedPrefixes {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("edge.protected_prefixes entry %q must be an absolute path", p)
		}
	}
	for prefix, role := range c.Edge.RolePrefixes {
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("edge.role_prefixes key %q must be an absolute path", prefix)
		}
		if !roleNames[role] {
			return fmt.Errorf("edge.role_prefixes[%q] has unknown role %q", prefix, role)
		}
	}
	if c.Edge.MaxHops < 1 {
		return fmt.Errorf("edge.max_hops must be >= 1")
	}
	if c.Edge.HopTokenTTL <= 0 {
		return fmt.Errorf("edge.hop_token_ttl must be > 0")
	}
	if c.Edge.HopSecret != "" && len(c.Edge.HopSecret) < 32 {
		return fmt.Errorf("edge.hop_secret must be at least 32 bytes when set")
	}

	// Auth
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be within 4..31")
	}
	if (c.Auth.SeedAdmin.Email == "") != (c.Auth.SeedAdmin.Password == "") {
		return fmt.Errorf("auth.seed_admin.email and password must be set together")
	}

	// Cache
	if c.Cache.StatsTTL < 0 {
		return fmt.Errorf("cache.stats_ttl must be >= 0")
	}

	// Monitoring
	if c.Monitoring.PrometheusEnabled && !strings.HasPrefix(c.Monitoring.MetricsPath, "/") {
		return fmt.Errorf("monitoring.metrics_path must be an absolute path when prometheus_enabled=true")
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerEndpoint == "" {
			return fmt.Errorf("tracing.jaeger_endpoint must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within 0..1")
		}
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Auth.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.auth.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Auth.Burst <= 0 {
			return fmt.Errorf("rate_limiting.auth.burst must be > 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// fall back to defaults
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 15 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Storage.Backend = "memory"
	cfg.Storage.Postgres.MaxConns = 10
	cfg.Storage.Postgres.PingTimeout = 2 * time.Second
	cfg.Storage.SQLite.Path = "data/agentmart.db"

	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10
	cfg.Redis.FallbackToMemory = true

	cfg.Session.CookieName = "user-session"
	cfg.Session.MaxAge = 7 * 24 * time.Hour
	cfg.Session.SameSite = "lax"
	cfg.Session.SecureMode = "auto"

	cfg.Edge.SignInPath = "/signin"
	cfg.Edge.MaxHops = 3
	cfg.Edge.HopTokenTTL = 30 * time.Second

	cfg.Auth.BcryptCost = 10

	cfg.Cache.StatsTTL = 30 * time.Second

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.MetricsPath = "/metrics"

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerEndpoint = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0
	cfg.Tracing.Environment = "development"

	// Rate limiting defaults (disabled by default)
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0
	cfg.RateLimiting.Auth.RequestsPerSecond = 1
	cfg.RateLimiting.Auth.Burst = 5

	return cfg
}

func (c *Config) applyEnvOverrides() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}
	str("SERVER_ADDRESS", &c.Server.Address)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("STORAGE_BACKEND", &c.Storage.Backend)
	str("POSTGRES_DSN", &c.Storage.Postgres.DSN)
	str("SQLITE_PATH", &c.Storage.SQLite.Path)
	str("REDIS_ADDRESS", &c.Redis.Address)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("SESSION_SECURE_MODE", &c.Session.SecureMode)
	str("HOP_SECRET", &c.Edge.HopSecret)
	str("SEED_ADMIN_EMAIL", &c.Auth.SeedAdmin.Email)
	str("SEED_ADMIN_PASSWORD", &c.Auth.SeedAdmin.Password)
	str("JAEGER_ENDPOINT", &c.Tracing.JaegerEndpoint)

	if v := os.Getenv(envPrefix + "TRACING_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sTRACING_ENABLED: %w", envPrefix, err)
		}
		c.Tracing.Enabled = enabled
	}
	if v := os.Getenv(envPrefix + "RATE_LIMITING_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMITING_ENABLED: %w", envPrefix, err)
		}
		c.RateLimiting.Enabled = enabled
	}
	return nil
}
