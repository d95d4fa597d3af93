package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	for _, key := range []string{"ANTHROPIC_API_KEY", "ZEEBE_ADDRESS", "REDIS_PASSWORD", "PORT", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
app:
  name: worldbuilder
workers:
  scenario-build-prompt:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "https://api.anthropic.com", cfg.APIs.Anthropic.BaseURL)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.APIs.Anthropic.Model)
	assert.Equal(t, "2023-06-01", cfg.APIs.Anthropic.Version)
	assert.Equal(t, 800, cfg.APIs.Anthropic.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.APIs.Anthropic.GatewayTimeout())
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "worldbuilder", cfg.Telemetry.ServiceName)

	wcfg := cfg.Workers["scenario-build-prompt"]
	assert.True(t, wcfg.Enabled)
	assert.Equal(t, 5, wcfg.MaxJobsActive)
	assert.Equal(t, 30000, wcfg.Timeout)
	assert.Equal(t, 3, wcfg.MaxRetries)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("PORT", "8088")
	t.Setenv("TEST_MODEL", "claude-test")

	path := writeConfig(t, `
apis:
  anthropic:
    model: ${TEST_MODEL}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.APIs.Anthropic.APIKey)
	assert.True(t, cfg.APIs.Anthropic.HasAnthropicKey())
	assert.Equal(t, "claude-test", cfg.APIs.Anthropic.Model)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, ":8088", cfg.Server.Address())
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name: "camunda enabled without broker",
			body: `
camunda:
  enabled: true
`,
			errMsg: "camunda.broker_address is required",
		},
		{
			name: "redis enabled without address",
			body: `
redis:
  enabled: true
`,
			errMsg: "redis.address is required",
		},
		{
			name: "sample ratio out of range",
			body: `
telemetry:
  sample_ratio: 2
`,
			errMsg: "telemetry.sample_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestHasAnthropicKey(t *testing.T) {
	assert.False(t, AnthropicConfig{}.HasAnthropicKey())
	assert.False(t, AnthropicConfig{APIKey: "  "}.HasAnthropicKey())
	assert.False(t, AnthropicConfig{APIKey: "your_api_key_here"}.HasAnthropicKey())
	assert.True(t, AnthropicConfig{APIKey: "sk-ant-123"}.HasAnthropicKey())
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"scenario-validate-input": {Enabled: false, MaxJobsActive: 2},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "scenario-validate-input"))
	assert.True(t, IsWorkerEnabled(cfg, "scenario-generate"))

	fallback := GetWorkerConfig(cfg, "unknown")
	assert.True(t, fallback.Enabled)
	assert.Equal(t, 5, fallback.MaxJobsActive)
}
