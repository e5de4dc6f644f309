package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string
	Port        int
	Environment string

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresUser   string `toml:"postgres_user"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis (auth sessions + login rate limit)
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus metrics listener
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// api rate limiter (in-memory, per user/IP)
	RateLimitMaxRequests     int `toml:"rate_limit_max_requests"`
	RateLimitWindowMs        int `toml:"rate_limit_window_ms"`
	RateLimitCleanupEverySec int `toml:"rate_limit_cleanup_every_sec"`

	// login endpoint rate limit (redis backed)
	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min"`

	// llm (coach chat + plan extraction)
	OllamaURL        string `toml:"ollama_url"`
	OllamaModel      string `toml:"ollama_model"`
	OllamaTimeoutSec int    `toml:"ollama_timeout_sec"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlFile Toml
	if _, err := toml.DecodeFile(path, &tomlFile); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := tomlFile.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s not present in %s", env, path)
	}

	cfg.Environment = env
	return cfg, nil
}
