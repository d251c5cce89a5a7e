package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	EnvName    string
	ServerPort string

	DatabaseURL string
	AutoMigrate bool

	SecretKey string
	TokenTTL  time.Duration

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	CacheBackend     string // "in_memory", "memcached", "redis" or "none"
	PaymentStatusTTL time.Duration

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RedisURL     string
	RedisTimeout time.Duration

	LoginRateLimitRPS   int
	LoginRateLimitBurst int

	CORSOrigins []string

	SentryDSN              string
	SentryEnvironment      string
	SentryTracesSampleRate float64

	OverloadWindow       time.Duration
	OverloadThresholdPct int
	DegradedWindow       time.Duration
	DegradedErrorPct     int
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		AutoMigrate *bool `yaml:"auto_migrate"`
	} `yaml:"database"`

	Auth struct {
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"auth"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend          string `yaml:"backend"`
		PaymentStatusTTL string `yaml:"payment_status_ttl"`
		Memcached        struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
		Redis struct {
			URL     string `yaml:"url"`
			Timeout string `yaml:"timeout"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Reliability struct {
		LoginRateLimitRPS   int `yaml:"login_rate_limit_rps"`
		LoginRateLimitBurst int `yaml:"login_rate_limit_burst"`
	} `yaml:"reliability"`

	CORS struct {
		Origins []string `yaml:"origins"`
	} `yaml:"cors"`

	Sentry struct {
		DSN              string   `yaml:"dsn"`
		Environment      string   `yaml:"environment"`
		TracesSampleRate *float64 `yaml:"traces_sample_rate"`
	} `yaml:"sentry"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Lifecycle struct {
		OverloadWindow       string `yaml:"overload_window"`
		OverloadThresholdPct int    `yaml:"overload_threshold_pct"`
		DegradedWindow       string `yaml:"degraded_window"`
		DegradedErrorPct     int    `yaml:"degraded_error_pct"`
	} `yaml:"lifecycle"`
}

type secretsFile struct {
	SecretKey   string `yaml:"secret_key"`
	DatabaseURL string `yaml:"database_url"`
	SentryDSN   string `yaml:"sentry_dsn"`
}

// Load reads configuration relative to the working directory. See LoadDir.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	return LoadDir(cwd)
}

// LoadDir reads root/config/{ENV_NAME}.yaml (default dev) and root/config/secrets.yaml.
// SECRET_KEY and DATABASE_URL come from env, falling back to the secrets file.
func LoadDir(root string) (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	configPath := filepath.Join(root, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	var sec secretsFile
	secretsData, err := os.ReadFile(filepath.Join(root, "config", "secrets.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read secrets file: %w", err)
		}
	} else if err := yaml.Unmarshal(secretsData, &sec); err != nil {
		return nil, fmt.Errorf("parse secrets file: %w", err)
	}

	cfg := &Config{EnvName: env}

	cfg.ServerPort = firstNonEmpty(os.Getenv("PORT"), fc.Server.Port, "8080")

	cfg.SecretKey = firstNonEmpty(os.Getenv("SECRET_KEY"), sec.SecretKey)
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY required (set env or config/secrets.yaml secret_key)")
	}
	cfg.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), sec.DatabaseURL)
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL required (set env or config/secrets.yaml database_url)")
	}
	cfg.AutoMigrate = true
	if fc.Database.AutoMigrate != nil {
		cfg.AutoMigrate = *fc.Database.AutoMigrate
	}

	cfg.TokenTTL = parseDuration(fc.Auth.TokenTTL, time.Hour)
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)
	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(firstNonEmpty(os.Getenv("CACHE_BACKEND"), fc.Cache.Backend, "in_memory")))
	cfg.PaymentStatusTTL = parseDuration(fc.Cache.PaymentStatusTTL, 24*time.Hour)
	cfg.MemcachedAddrs = strings.TrimSpace(firstNonEmpty(os.Getenv("MEMCACHED_ADDRS"), fc.Cache.Memcached.Addrs, "localhost:11211"))
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}
	cfg.RedisURL = strings.TrimSpace(firstNonEmpty(os.Getenv("REDIS_URL"), fc.Cache.Redis.URL, "redis://localhost:6379/0"))
	cfg.RedisTimeout = parseDuration(fc.Cache.Redis.Timeout, 500*time.Millisecond)

	cfg.LoginRateLimitRPS = fc.Reliability.LoginRateLimitRPS
	if cfg.LoginRateLimitRPS <= 0 {
		cfg.LoginRateLimitRPS = 5
	}
	cfg.LoginRateLimitBurst = fc.Reliability.LoginRateLimitBurst
	if cfg.LoginRateLimitBurst <= 0 {
		cfg.LoginRateLimitBurst = 10
	}

	cfg.CORSOrigins = fc.CORS.Origins
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	cfg.SentryDSN = firstNonEmpty(os.Getenv("SENTRY_DSN"), sec.SentryDSN, fc.Sentry.DSN)
	cfg.SentryEnvironment = firstNonEmpty(fc.Sentry.Environment, env)
	cfg.SentryTracesSampleRate = 0.6
	if fc.Sentry.TracesSampleRate != nil {
		cfg.SentryTracesSampleRate = *fc.Sentry.TracesSampleRate
	}

	cfg.OverloadWindow = parseDuration(fc.Lifecycle.OverloadWindow, 60*time.Second)
	cfg.OverloadThresholdPct = fc.Lifecycle.OverloadThresholdPct
	if cfg.OverloadThresholdPct <= 0 {
		cfg.OverloadThresholdPct = 80
	}
	cfg.DegradedWindow = parseDuration(fc.Lifecycle.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Lifecycle.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 5
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	switch cfg.CacheBackend {
	case "in_memory", "memcached", "redis", "none":
	default:
		return fmt.Errorf("cache.backend must be in_memory, memcached, redis or none, got %q", cfg.CacheBackend)
	}
	if cfg.SentryTracesSampleRate < 0 || cfg.SentryTracesSampleRate > 1 {
		return fmt.Errorf("sentry.traces_sample_rate must be within [0, 1], got %v", cfg.SentryTracesSampleRate)
	}
	if cfg.OverloadThresholdPct > 100 || cfg.DegradedErrorPct > 100 {
		return fmt.Errorf("lifecycle percentages must not exceed 100")
	}
	return nil
}
