package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 5002, cfg.Server.Port)
	assert.Equal(t, DefaultTargetURL, cfg.Scraper.TargetURL)
	assert.Equal(t, 10*time.Second, cfg.Scraper.Interval)
	assert.Equal(t, 3, cfg.Scraper.ContractMonths)
	assert.Equal(t, 5*time.Second, cfg.Scraper.LocatorTimeout)
	assert.Equal(t, 3*time.Second, cfg.Scraper.RateTimeout)
	assert.Equal(t, 3*time.Second, cfg.Scraper.SettleDelay)
	assert.Equal(t, "mcx_aluminium_prices.csv", cfg.History.Path)
	assert.Equal(t, []string{"Image", "Font", "Media"}, cfg.Browser.BlockedResourceTypes)
	assert.Len(t, cfg.Browser.CandidateBins, 4)
	assert.True(t, cfg.Browser.BlockTrackers)
	assert.False(t, cfg.Auth.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MCX_PORT", "9090")
	t.Setenv("MCX_INTERVAL", "30s")
	t.Setenv("MCX_CONTRACT_MONTHS", "2")
	t.Setenv("CHROME_PATH", "/opt/chrome/chrome")
	t.Setenv("MCX_API_KEYS", "a, b ,,c")
	t.Setenv("MCX_REDIS_ADDR", "redis:6379")
	t.Setenv("MCX_BLOCK_TRACKERS", "false")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Scraper.Interval)
	assert.Equal(t, 2, cfg.Scraper.ContractMonths)
	assert.Equal(t, "/opt/chrome/chrome", cfg.Browser.BrowserBin)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Auth.APIKeys)
	assert.Equal(t, "redis:6379", cfg.Publish.RedisAddr)
	assert.False(t, cfg.Browser.BlockTrackers)
}

func TestLoad_BrowserBinFallback(t *testing.T) {
	t.Setenv("CHROME_PATH", "")
	t.Setenv("MCX_BROWSER_BIN", "/usr/bin/chromium")

	assert.Equal(t, "/usr/bin/chromium", Load().Browser.BrowserBin)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MCX_PORT", "not-a-number")
	t.Setenv("MCX_INTERVAL", "soon")

	cfg := Load()
	assert.Equal(t, 5002, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Scraper.Interval)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.Scraper.Interval = 0
	cfg.Scraper.TargetURL = ""
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval must be positive")
	assert.Contains(t, err.Error(), "target URL is empty")
	assert.Contains(t, err.Error(), "auth enabled without API keys")
}
