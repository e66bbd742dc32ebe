package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "workspace.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "WORKSPACE_PORT")
	setString(&cfg.Server.CORSOrigin, "WORKSPACE_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "WORKSPACE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "WORKSPACE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "WORKSPACE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "WORKSPACE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "WORKSPACE_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.APIKey, "LITELLM_API_KEY")
	setString(&cfg.LiteLLM.ChatModel, "WORKSPACE_CHAT_MODEL")
	setString(&cfg.LiteLLM.AnalysisModel, "WORKSPACE_ANALYSIS_MODEL")
	setString(&cfg.LiteLLM.BoostModel, "WORKSPACE_BOOST_MODEL")
	setInt(&cfg.LiteLLM.ChatMaxTokens, "WORKSPACE_CHAT_MAX_TOKENS")
	setInt(&cfg.LiteLLM.AnalysisMaxTokens, "WORKSPACE_ANALYSIS_MAX_TOKENS")
	setString(&cfg.Stripe.URL, "STRIPE_URL")
	setString(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setFloat64(&cfg.Stripe.BoostCostUSD, "WORKSPACE_BOOST_COST_USD")
	setString(&cfg.Logging.Level, "WORKSPACE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "WORKSPACE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "WORKSPACE_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "WORKSPACE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "WORKSPACE_BREAKER_TIMEOUT")
	setInt64(&cfg.Cache.MaxSizeMB, "WORKSPACE_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "WORKSPACE_CACHE_TTL")
	setBool(&cfg.Telemetry.Enabled, "WORKSPACE_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setFloat64(&cfg.Rate.RPS, "WORKSPACE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "WORKSPACE_RATE_BURST")
	setInt(&cfg.Chat.HistoryWindow, "WORKSPACE_CHAT_HISTORY_WINDOW")
	setInt(&cfg.Boost.MaxTargets, "WORKSPACE_BOOST_MAX_TARGETS")
	setInt(&cfg.Boost.MaxRounds, "WORKSPACE_BOOST_MAX_ROUNDS")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Stripe.BoostCostUSD <= 0 {
		return errors.New("stripe.boost_cost_usd must be > 0")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Boost.MaxTargets < 1 {
		return errors.New("boost.max_targets must be >= 1")
	}
	if cfg.Chat.HistoryWindow < 1 {
		return errors.New("chat.history_window must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
