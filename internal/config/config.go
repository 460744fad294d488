// Package config defines the top-level configuration for the funding-rate
// arbitrage bot and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by FUNDINGBOT_* environment
// variables. It is validated eagerly at load time and passed by reference
// into the engine at construction; there is no ambient global config.
type Config struct {
	OKX      OKXConfig      `toml:"okx"`
	Strategy StrategyConfig `toml:"strategy"`
	Risk     RiskConfig     `toml:"risk"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// OKXConfig holds OKX API endpoints and credentials. The secret may be
// supplied raw or as an encrypted key file plus password.
type OKXConfig struct {
	RestURL          string `toml:"rest_url"`
	WsPublicURL      string `toml:"ws_public_url"`
	ApiKey           string `toml:"api_key"`
	ApiSecret        string `toml:"api_secret"`
	Passphrase       string `toml:"passphrase"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
	Simulated        bool   `toml:"simulated"` // demo-trading header
}

// StrategyConfig holds the opportunity-selection parameters.
type StrategyConfig struct {
	CapitalPerTradeRatio       float64  `toml:"capital_per_trade_ratio"`
	MinAnnualizedReturn        float64  `toml:"min_annualized_return"`
	EnableNegativeRateStrategy bool     `toml:"enable_negative_rate_strategy"`
	EnableSpotEarning          bool     `toml:"enable_spot_earning"`
	FundingPeriodsPerDay       float64  `toml:"funding_periods_per_day"`
	ScanInterval               duration `toml:"scan_interval"`
	CollectInterval            duration `toml:"collect_interval"`
	ScanWorkers                int      `toml:"scan_workers"`
}

// RiskConfig holds the risk parameters carried into decisions.
type RiskConfig struct {
	Leverage           float64 `toml:"leverage"`
	MaxAllowedSlippage float64 `toml:"max_allowed_slippage"`
}

// PostgresConfig holds PostgreSQL connection parameters for the funding and
// scan-audit history stores.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the market-data cache.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	BookTTL    duration `toml:"book_ttl"`
	EarnTTL    duration `toml:"earn_ttl"`
}

// S3Config holds S3-compatible object storage parameters for cold archives.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig controls the funding-history archiver.
type ArchiveConfig struct {
	Enabled       bool   `toml:"enabled"`
	RetentionDays int    `toml:"retention_days"`
	Cron          string `toml:"cron"`
}

// ServerConfig controls the read-only HTTP/WebSocket status API.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		OKX: OKXConfig{
			RestURL:     "https://www.okx.com",
			WsPublicURL: "wss://ws.okx.com:8443/ws/v5/public",
		},
		Strategy: StrategyConfig{
			CapitalPerTradeRatio:       0.1,
			MinAnnualizedReturn:        0.15,
			EnableNegativeRateStrategy: false,
			EnableSpotEarning:          true,
			FundingPeriodsPerDay:       3,
			ScanInterval:               duration{5 * time.Minute},
			CollectInterval:            duration{time.Minute},
			ScanWorkers:                8,
		},
		Risk: RiskConfig{
			Leverage:           3.0,
			MaxAllowedSlippage: 0.01,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "fundingbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			BookTTL:    duration{3 * time.Second},
			EarnTTL:    duration{10 * time.Minute},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "fundingbot-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 30,
			Cron:          "0 3 * * *",
		},
		Server: ServerConfig{
			Enabled:    false,
			Port:       8080,
			RateLimit:  20,
			RateWindow: duration{time.Second},
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// Validate checks the configuration for out-of-range values. It runs before
// anything else starts so a config defect fails fast instead of surfacing as
// a rejected evaluation mid-scan.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "scan", "collect", "full":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if r := c.Strategy.CapitalPerTradeRatio; r <= 0 || r > 1 {
		return fmt.Errorf("config: capital_per_trade_ratio %v outside (0, 1]", r)
	}
	if c.Strategy.MinAnnualizedReturn <= 0 {
		return fmt.Errorf("config: min_annualized_return must be positive")
	}
	if c.Strategy.FundingPeriodsPerDay <= 0 {
		return fmt.Errorf("config: funding_periods_per_day must be positive")
	}
	if c.Strategy.ScanInterval.Duration <= 0 {
		return fmt.Errorf("config: scan_interval must be positive")
	}
	if c.Strategy.CollectInterval.Duration <= 0 {
		return fmt.Errorf("config: collect_interval must be positive")
	}
	if c.Strategy.ScanWorkers <= 0 {
		return fmt.Errorf("config: scan_workers must be positive")
	}
	if s := c.Risk.MaxAllowedSlippage; s <= 0 || s >= 1 {
		return fmt.Errorf("config: max_allowed_slippage %v outside (0, 1)", s)
	}
	if c.Risk.Leverage <= 0 {
		return fmt.Errorf("config: leverage must be positive")
	}
	if c.OKX.RestURL == "" {
		return fmt.Errorf("config: okx rest_url is required")
	}
	if c.Archive.Enabled && c.Archive.RetentionDays <= 0 {
		return fmt.Errorf("config: archive retention_days must be positive when enabled")
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("config: server port %d outside (0, 65535]", c.Server.Port)
	}
	return nil
}
