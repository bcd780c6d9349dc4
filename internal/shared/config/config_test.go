package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LLM_PROVIDER", "VENDOR_MODE", "DEFAULT_CURRENCY",
		"TOKEN_REFRESH_INTERVAL", "WATCH_INTERVAL", "STORAGE_PROVIDER", "ZOHO_TOKEN_URL"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "claude", cfg.LLMProvider)
	assert.Equal(t, "auto", cfg.VendorMode)
	assert.Equal(t, "CAD", cfg.DefaultCurrency)
	assert.Equal(t, 5*time.Minute, cfg.TokenRefreshInterval)
	assert.Equal(t, time.Minute, cfg.WatchInterval)
	assert.Equal(t, "local", cfg.StorageProvider)
	assert.Equal(t, "https://accounts.zoho.com/oauth/v2/token", cfg.ZohoTokenURL)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("VENDOR_MODE", "confirm")
	t.Setenv("WATCH_INTERVAL", "30s")
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("CLAUDE_API_KEY", "")

	cfg := LoadConfig()

	assert.Equal(t, "confirm", cfg.VendorMode)
	assert.Equal(t, 30*time.Second, cfg.WatchInterval)
	assert.Equal(t, 4096, cfg.LLMMaxTokens)
	assert.Equal(t, "sk-ant", cfg.ClaudeAPIKey)
}
