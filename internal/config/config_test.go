package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_Validate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unsupported mode", func(c *Config) { c.Mode = "trade" }},
		{"capital ratio zero", func(c *Config) { c.Strategy.CapitalPerTradeRatio = 0 }},
		{"capital ratio above one", func(c *Config) { c.Strategy.CapitalPerTradeRatio = 1.5 }},
		{"min return zero", func(c *Config) { c.Strategy.MinAnnualizedReturn = 0 }},
		{"funding periods zero", func(c *Config) { c.Strategy.FundingPeriodsPerDay = 0 }},
		{"scan interval zero", func(c *Config) { c.Strategy.ScanInterval = duration{} }},
		{"collect interval zero", func(c *Config) { c.Strategy.CollectInterval = duration{} }},
		{"scan workers zero", func(c *Config) { c.Strategy.ScanWorkers = 0 }},
		{"slippage zero", func(c *Config) { c.Risk.MaxAllowedSlippage = 0 }},
		{"slippage one", func(c *Config) { c.Risk.MaxAllowedSlippage = 1 }},
		{"leverage zero", func(c *Config) { c.Risk.Leverage = 0 }},
		{"missing rest url", func(c *Config) { c.OKX.RestURL = "" }},
		{"archive enabled without retention", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.RetentionDays = 0
		}},
		{"server enabled with bad port", func(c *Config) {
			c.Server.Enabled = true
			c.Server.Port = 0
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
mode = "full"
log_level = "debug"

[strategy]
scan_interval = "30s"
min_annualized_return = 0.25

[redis]
addr = "redis.internal:6379"
book_ttl = "5s"

[server]
enabled = true
port = 9090
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("FUNDINGBOT_OKX_API_KEY", "env-key")
	t.Setenv("FUNDINGBOT_STRATEGY_SCAN_INTERVAL", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "full", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Env beats file.
	assert.Equal(t, time.Minute, cfg.Strategy.ScanInterval.Duration)
	assert.Equal(t, "env-key", cfg.OKX.ApiKey)
	// File beats defaults.
	assert.Equal(t, 0.25, cfg.Strategy.MinAnnualizedReturn)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 5*time.Second, cfg.Redis.BookTTL.Duration)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Untouched values keep their defaults.
	assert.Equal(t, "https://www.okx.com", cfg.OKX.RestURL)
	assert.Equal(t, 3.0, cfg.Risk.Leverage)

	require.NoError(t, cfg.Validate())
}

func TestDuration_TextRoundTrip(t *testing.T) {
	var d duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("ninety")))
}
