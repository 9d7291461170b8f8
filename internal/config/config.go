// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Gateway    GatewayConfig    `yaml:"gateway" mapstructure:"gateway"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic provider settings. An empty key disables
// the provider; it is not a startup failure.
type AnthropicConfig struct {
	Key             string `yaml:"key" mapstructure:"key"`
	Model           string `yaml:"model" mapstructure:"model"`
	Priority        int    `yaml:"priority" mapstructure:"priority"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min" mapstructure:"rate_limit_per_min"`
}

// PerplexityConfig holds Perplexity provider settings. An empty key disables
// the provider.
type PerplexityConfig struct {
	Key             string `yaml:"key" mapstructure:"key"`
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	Model           string `yaml:"model" mapstructure:"model"`
	Priority        int    `yaml:"priority" mapstructure:"priority"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min" mapstructure:"rate_limit_per_min"`
}

// GatewayConfig configures the completion gateway.
type GatewayConfig struct {
	RetryBudget        int `yaml:"retry_budget" mapstructure:"retry_budget"`
	RequestTimeoutSecs int `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	CacheTTLSecs       int `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	SweepIntervalSecs  int `yaml:"sweep_interval_secs" mapstructure:"sweep_interval_secs"`
	HealthIntervalSecs int `yaml:"health_interval_secs" mapstructure:"health_interval_secs"`
	BackoffBaseMs      int `yaml:"backoff_base_ms" mapstructure:"backoff_base_ms"`
	BackoffCapMs       int `yaml:"backoff_cap_ms" mapstructure:"backoff_cap_ms"`
}

// FetchConfig configures the resilient fetcher.
type FetchConfig struct {
	MaxRetries    int `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs   int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	SourceDelayMs int `yaml:"source_delay_ms" mapstructure:"source_delay_ms"`
	BackoffBaseMs int `yaml:"backoff_base_ms" mapstructure:"backoff_base_ms"`
}

// DiscoveryConfig configures the hybrid orchestrator and quality gates.
type DiscoveryConfig struct {
	MinQualityScore    int `yaml:"min_quality_score" mapstructure:"min_quality_score"`
	AdapterMinScore    int `yaml:"adapter_min_score" mapstructure:"adapter_min_score"`
	HybridGeneratedPct int `yaml:"hybrid_generated_pct" mapstructure:"hybrid_generated_pct"`
	BatchSize          int `yaml:"batch_size" mapstructure:"batch_size"`
	VerifyConcurrency  int `yaml:"verify_concurrency" mapstructure:"verify_concurrency"`
	VerifyTimeoutSecs  int `yaml:"verify_timeout_secs" mapstructure:"verify_timeout_secs"`
}

// NotionConfig holds the optional Notion lead-sink settings.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// ServerConfig configures the job API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("DISCOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "discover.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.priority", 1)
	v.SetDefault("anthropic.rate_limit_per_min", 50)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("perplexity.priority", 2)
	v.SetDefault("perplexity.rate_limit_per_min", 20)
	v.SetDefault("gateway.retry_budget", 2)
	v.SetDefault("gateway.request_timeout_secs", 60)
	v.SetDefault("gateway.cache_ttl_secs", 900)
	v.SetDefault("gateway.sweep_interval_secs", 120)
	v.SetDefault("gateway.health_interval_secs", 60)
	v.SetDefault("gateway.backoff_base_ms", 500)
	v.SetDefault("gateway.backoff_cap_ms", 15000)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.timeout_secs", 15)
	v.SetDefault("fetch.source_delay_ms", 1500)
	v.SetDefault("fetch.backoff_base_ms", 1000)
	v.SetDefault("discovery.min_quality_score", 70)
	v.SetDefault("discovery.adapter_min_score", 55)
	v.SetDefault("discovery.hybrid_generated_pct", 60)
	v.SetDefault("discovery.batch_size", 8)
	v.SetDefault("discovery.verify_concurrency", 5)
	v.SetDefault("discovery.verify_timeout_secs", 5)

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
