// Package config handles configuration loading for MarketRadar.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/seenimoa/marketradar/pkg/utils"
)

// Config represents the complete application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"      yaml:"app"`
	Sources  SourcesConfig  `mapstructure:"sources"  yaml:"sources"`
	Store    StoreConfig    `mapstructure:"store"    yaml:"store"`
	LLM      LLMConfig      `mapstructure:"llm"      yaml:"llm"`
	Features FeaturesConfig `mapstructure:"features" yaml:"features"`
	Notify   NotifyConfig   `mapstructure:"notify"   yaml:"notify"`
	Feeds    FeedsConfig    `mapstructure:"feeds"    yaml:"feeds"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	DataDir  string `mapstructure:"data_dir" yaml:"data_dir"`
	Timezone string `mapstructure:"timezone" yaml:"timezone"` // IANA name, e.g. "Asia/Shanghai"
}

// SourcesConfig holds upstream quote source settings.
type SourcesConfig struct {
	CryptoSymbols        []string      `mapstructure:"crypto_symbols"         yaml:"crypto_symbols"`
	EquitySymbols        []string      `mapstructure:"equity_symbols"         yaml:"equity_symbols"` // custom stocks, e.g. AAPL
	UsePredefinedIndices bool          `mapstructure:"use_predefined_indices" yaml:"use_predefined_indices"`
	Workers              int           `mapstructure:"workers"                yaml:"workers"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"        yaml:"request_timeout"`
	CourtesyDelay        time.Duration `mapstructure:"courtesy_delay"         yaml:"courtesy_delay"`
	MaxRetries           int           `mapstructure:"max_retries"            yaml:"max_retries"`
	CoinGeckoURL         string        `mapstructure:"coingecko_url"          yaml:"coingecko_url"`
	YahooURL             string        `mapstructure:"yahoo_url"              yaml:"yahoo_url"`
	PolygonKey           string        `mapstructure:"polygon_key"            yaml:"polygon_key"`
}

// StoreConfig holds time-series store settings.
type StoreConfig struct {
	Path          string `mapstructure:"path"           yaml:"path"` // defaults to <data_dir>/marketradar.db
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// LLMConfig holds narration service configuration.
type LLMConfig struct {
	Primary       string        `mapstructure:"primary"        yaml:"primary"` // "anthropic" or "openai"
	AnthropicKey  string        `mapstructure:"anthropic_key"  yaml:"anthropic_key"`
	OpenAIKey     string        `mapstructure:"openai_key"     yaml:"openai_key"`
	BaseURL       string        `mapstructure:"base_url"       yaml:"base_url"`
	Model         string        `mapstructure:"model"          yaml:"model"`
	FallbackModel string        `mapstructure:"fallback_model" yaml:"fallback_model"`
	Temperature   float64       `mapstructure:"temperature"    yaml:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"     yaml:"max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"        yaml:"timeout"`
}

// FeaturesConfig toggles optional pipeline stages.
type FeaturesConfig struct {
	AI            bool `mapstructure:"ai"            yaml:"ai"`
	Notifications bool `mapstructure:"notifications" yaml:"notifications"`
	Feeds         bool `mapstructure:"feeds"         yaml:"feeds"`
}

// NotifyConfig holds webhook notification settings.
type NotifyConfig struct {
	WebhookURL   string        `mapstructure:"webhook_url"   yaml:"webhook_url"`
	DashboardURL string        `mapstructure:"dashboard_url" yaml:"dashboard_url"`
	Timeout      time.Duration `mapstructure:"timeout"       yaml:"timeout"`
}

// FeedsConfig lists RSS/Atom feeds shown alongside the market data.
type FeedsConfig struct {
	URLs  []string `mapstructure:"urls"  yaml:"urls"`
	Limit int      `mapstructure:"limit" yaml:"limit"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string        `mapstructure:"host"         yaml:"host"`
	Port        int           `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	Schedule    time.Duration `mapstructure:"schedule"     yaml:"schedule"` // 0 disables periodic runs
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"        yaml:"level"`  // "debug", "info", "warn", "error"
	Format     string `mapstructure:"format"       yaml:"format"` // "text" or "json"
	File       string `mapstructure:"file"         yaml:"file"`   // empty logs to stderr only
	MaxSizeMB  int    `mapstructure:"max_size_mb"  yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"  yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// StorePath returns the database file path.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.App.DataDir, "marketradar.db")
}

// DashboardDir returns the directory the HTML dashboards are written to.
func (c *Config) DashboardDir() string {
	return filepath.Join(c.App.DataDir, "dashboard")
}

// Validate checks values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	var errs []error
	if c.App.DataDir == "" {
		errs = append(errs, errors.New("app.data_dir must not be empty"))
	}
	if c.Sources.Workers < 1 {
		errs = append(errs, fmt.Errorf("sources.workers must be >= 1, got %d", c.Sources.Workers))
	}
	if c.Sources.RequestTimeout <= 0 {
		errs = append(errs, errors.New("sources.request_timeout must be positive"))
	}
	if c.Sources.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("sources.max_retries must be >= 0, got %d", c.Sources.MaxRetries))
	}
	if c.Store.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("store.retention_days must be >= 0, got %d", c.Store.RetentionDays))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port out of range: %d", c.API.Port))
	}
	return errors.Join(errs...)
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.marketradar/config.yaml (home directory)
//  3. /etc/marketradar/config.yaml (system)
//
// Environment variables override config file values.
// Format: MARKETRADAR_<SECTION>_<KEY>, e.g., MARKETRADAR_LLM_ANTHROPIC_KEY
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".marketradar"))
	v.AddConfigPath("/etc/marketradar")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("MARKETRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.data_dir", "data")
	v.SetDefault("app.timezone", utils.DefaultTimezone)

	v.SetDefault("sources.crypto_symbols", []string{"BTC", "ETH", "BNB", "SOL", "XRP"})
	v.SetDefault("sources.equity_symbols", []string{})
	v.SetDefault("sources.use_predefined_indices", true)
	v.SetDefault("sources.workers", 4)
	v.SetDefault("sources.request_timeout", "10s")
	v.SetDefault("sources.courtesy_delay", "200ms")
	v.SetDefault("sources.max_retries", 2)
	v.SetDefault("sources.coingecko_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("sources.yahoo_url", "https://query1.finance.yahoo.com")

	v.SetDefault("store.retention_days", 400)

	v.SetDefault("llm.primary", "anthropic")
	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("features.ai", true)
	v.SetDefault("features.notifications", true)
	v.SetDefault("features.feeds", false)

	v.SetDefault("notify.timeout", "10s")

	v.SetDefault("feeds.urls", []string{})
	v.SetDefault("feeds.limit", 5)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.schedule", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
}

// Legacy environment variable names, still honoured for existing deployments.
const (
	envLegacyAnthropicKey = "ANTHROPIC_API_KEY"
	envLegacyWebhookURL   = "FEISHU_WEBHOOK_URL"
	envLegacyDataDir      = "DATA_DIR"
	envLegacyTimezone     = "TIMEZONE"
	envLegacyEnableAI     = "ENABLE_AI"
	envLegacyEnableNotify = "ENABLE_NOTIFICATIONS"
)

// overrideFromEnv explicitly reads sensitive keys and legacy variables from
// the environment. Prefixed variables win over legacy ones.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv(envLegacyDataDir); v != "" {
		cfg.App.DataDir = v
	}
	if v := os.Getenv(envLegacyTimezone); v != "" {
		cfg.App.Timezone = v
	}
	if v, ok := envBool(envLegacyEnableAI); ok {
		cfg.Features.AI = v
	}
	if v, ok := envBool(envLegacyEnableNotify); ok {
		cfg.Features.Notifications = v
	}
	if key := os.Getenv(envLegacyAnthropicKey); key != "" {
		cfg.LLM.AnthropicKey = key
	}
	if url := os.Getenv(envLegacyWebhookURL); url != "" {
		cfg.Notify.WebhookURL = url
	}

	if key := os.Getenv("MARKETRADAR_LLM_ANTHROPIC_KEY"); key != "" {
		cfg.LLM.AnthropicKey = key
	}
	if key := os.Getenv("MARKETRADAR_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := os.Getenv("MARKETRADAR_SOURCES_POLYGON_KEY"); key != "" {
		cfg.Sources.PolygonKey = key
	}
	if url := os.Getenv("MARKETRADAR_NOTIFY_WEBHOOK_URL"); url != "" {
		cfg.Notify.WebhookURL = url
	}
}

func envBool(name string) (bool, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, false
	}
	return b, true
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
