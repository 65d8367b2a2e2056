package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sensitiveEnv = []string{
	"MARKETRADAR_LLM_ANTHROPIC_KEY", "MARKETRADAR_LLM_OPENAI_KEY",
	"MARKETRADAR_SOURCES_POLYGON_KEY", "MARKETRADAR_NOTIFY_WEBHOOK_URL",
	"ANTHROPIC_API_KEY", "FEISHU_WEBHOOK_URL", "DATA_DIR", "TIMEZONE",
	"ENABLE_AI", "ENABLE_NOTIFICATIONS",
}

// clearEnv blanks every variable overrideFromEnv reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, e := range sensitiveEnv {
		t.Setenv(e, "")
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.App.DataDir)
	assert.Equal(t, "Asia/Shanghai", cfg.App.Timezone)

	assert.Equal(t, []string{"BTC", "ETH", "BNB", "SOL", "XRP"}, cfg.Sources.CryptoSymbols)
	assert.True(t, cfg.Sources.UsePredefinedIndices)
	assert.Equal(t, 4, cfg.Sources.Workers)
	assert.Equal(t, 10*time.Second, cfg.Sources.RequestTimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.Sources.CourtesyDelay)
	assert.Equal(t, 2, cfg.Sources.MaxRetries)

	assert.Equal(t, 400, cfg.Store.RetentionDays)
	assert.Equal(t, filepath.Join("data", "marketradar.db"), cfg.StorePath())
	assert.Equal(t, filepath.Join("data", "dashboard"), cfg.DashboardDir())

	assert.Equal(t, "anthropic", cfg.LLM.Primary)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)

	assert.True(t, cfg.Features.AI)
	assert.True(t, cfg.Features.Notifications)
	assert.False(t, cfg.Features.Feeds)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, time.Hour, cfg.API.Schedule)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	assert.NoError(t, cfg.Validate())
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	cfgPath := filepath.Join(t.TempDir(), "test_config.yaml")
	content := []byte(`
app:
  data_dir: "/var/lib/marketradar"
  timezone: "UTC"
sources:
  crypto_symbols: ["BTC", "AAVE"]
  equity_symbols: ["AAPL"]
  workers: 8
  request_timeout: "5s"
store:
  path: "/tmp/mr.db"
  retention_days: 0
llm:
  primary: "openai"
  model: "gpt-4o"
api:
  port: 9090
  schedule: "30m"
logging:
  level: "debug"
  format: "json"
  file: "/var/log/marketradar.log"
`)
	require.NoError(t, os.WriteFile(cfgPath, content, 0o644))

	cfg, err := LoadFromFile(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/marketradar", cfg.App.DataDir)
	assert.Equal(t, []string{"BTC", "AAVE"}, cfg.Sources.CryptoSymbols)
	assert.Equal(t, []string{"AAPL"}, cfg.Sources.EquitySymbols)
	assert.Equal(t, 8, cfg.Sources.Workers)
	assert.Equal(t, 5*time.Second, cfg.Sources.RequestTimeout)
	assert.Equal(t, "/tmp/mr.db", cfg.StorePath())
	assert.Equal(t, 0, cfg.Store.RetentionDays)
	assert.Equal(t, "openai", cfg.LLM.Primary)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, 30*time.Minute, cfg.API.Schedule)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/var/log/marketradar.log", cfg.Logging.File)
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

// ── Validate ──

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Sources.Workers = 0
	cfg.API.Port = 70000
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sources.workers")
	assert.Contains(t, err.Error(), "api.port")
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MARKETRADAR_LLM_ANTHROPIC_KEY", "sk-ant-test")
	t.Setenv("MARKETRADAR_LLM_OPENAI_KEY", "sk-test-openai-key-123456")
	t.Setenv("MARKETRADAR_SOURCES_POLYGON_KEY", "poly-key")
	t.Setenv("MARKETRADAR_NOTIFY_WEBHOOK_URL", "https://hook.example/abc")

	cfg := &Config{}
	overrideFromEnv(cfg)

	assert.Equal(t, "sk-ant-test", cfg.LLM.AnthropicKey)
	assert.Equal(t, "sk-test-openai-key-123456", cfg.LLM.OpenAIKey)
	assert.Equal(t, "poly-key", cfg.Sources.PolygonKey)
	assert.Equal(t, "https://hook.example/abc", cfg.Notify.WebhookURL)
}

func TestOverrideFromLegacyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "legacy-key")
	t.Setenv("FEISHU_WEBHOOK_URL", "https://open.feishu.cn/hook/1")
	t.Setenv("DATA_DIR", "/srv/data")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ENABLE_AI", "false")
	t.Setenv("ENABLE_NOTIFICATIONS", "not-a-bool")

	cfg := &Config{Features: FeaturesConfig{AI: true, Notifications: true}}
	overrideFromEnv(cfg)

	assert.Equal(t, "legacy-key", cfg.LLM.AnthropicKey)
	assert.Equal(t, "https://open.feishu.cn/hook/1", cfg.Notify.WebhookURL)
	assert.Equal(t, "/srv/data", cfg.App.DataDir)
	assert.Equal(t, "UTC", cfg.App.Timezone)
	assert.False(t, cfg.Features.AI)
	assert.True(t, cfg.Features.Notifications, "unparseable value leaves the setting alone")

	// Prefixed variables win over legacy ones.
	t.Setenv("MARKETRADAR_LLM_ANTHROPIC_KEY", "prefixed-key")
	overrideFromEnv(cfg)
	assert.Equal(t, "prefixed-key", cfg.LLM.AnthropicKey)
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearEnv(t)

	cfg := &Config{LLM: LLMConfig{AnthropicKey: "from-config"}}
	overrideFromEnv(cfg)
	assert.Equal(t, "from-config", cfg.LLM.AnthropicKey)
}

// ── maskKey ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"sk-abcdef1234567890xyz", "sk-...xyz"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, maskKey(tc.input), tc.input)
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysAllEmpty(t *testing.T) {
	clearEnv(t)

	statuses := CheckAPIKeys(&Config{})
	require.Len(t, statuses, 4)
	for _, s := range statuses {
		assert.False(t, s.IsSet, s.Name)
		assert.Equal(t, KeySourceNone, s.Source, s.Name)
	}
}

func TestCheckAPIKeysSource(t *testing.T) {
	clearEnv(t)

	cfg := &Config{LLM: LLMConfig{AnthropicKey: "sk-test-very-long-key-value"}}
	statuses := CheckAPIKeys(cfg)
	assert.Equal(t, KeySourceConfig, statuses[0].Source)
	assert.Equal(t, "sk-...lue", statuses[0].Masked)

	t.Setenv("ANTHROPIC_API_KEY", "sk-test-very-long-key-value")
	statuses = CheckAPIKeys(cfg)
	assert.Equal(t, KeySourceEnv, statuses[0].Source, "legacy variable counts as env")
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, homeDir())
}
