package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies FUNDINGBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FUNDINGBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── OKX ──
	setStr(&cfg.OKX.RestURL, "FUNDINGBOT_OKX_REST_URL")
	setStr(&cfg.OKX.WsPublicURL, "FUNDINGBOT_OKX_WS_PUBLIC_URL")
	setStr(&cfg.OKX.ApiKey, "FUNDINGBOT_OKX_API_KEY")
	setStr(&cfg.OKX.ApiSecret, "FUNDINGBOT_OKX_API_SECRET")
	setStr(&cfg.OKX.Passphrase, "FUNDINGBOT_OKX_PASSPHRASE")
	setStr(&cfg.OKX.EncryptedKeyPath, "FUNDINGBOT_OKX_ENCRYPTED_KEY_PATH")
	setStr(&cfg.OKX.KeyPassword, "FUNDINGBOT_OKX_KEY_PASSWORD")
	setBool(&cfg.OKX.Simulated, "FUNDINGBOT_OKX_SIMULATED")

	// ── Strategy ──
	setFloat64(&cfg.Strategy.CapitalPerTradeRatio, "FUNDINGBOT_STRATEGY_CAPITAL_PER_TRADE_RATIO")
	setFloat64(&cfg.Strategy.MinAnnualizedReturn, "FUNDINGBOT_STRATEGY_MIN_ANNUALIZED_RETURN")
	setBool(&cfg.Strategy.EnableNegativeRateStrategy, "FUNDINGBOT_STRATEGY_ENABLE_NEGATIVE_RATE_STRATEGY")
	setBool(&cfg.Strategy.EnableSpotEarning, "FUNDINGBOT_STRATEGY_ENABLE_SPOT_EARNING")
	setFloat64(&cfg.Strategy.FundingPeriodsPerDay, "FUNDINGBOT_STRATEGY_FUNDING_PERIODS_PER_DAY")
	setDuration(&cfg.Strategy.ScanInterval, "FUNDINGBOT_STRATEGY_SCAN_INTERVAL")
	setDuration(&cfg.Strategy.CollectInterval, "FUNDINGBOT_STRATEGY_COLLECT_INTERVAL")
	setInt(&cfg.Strategy.ScanWorkers, "FUNDINGBOT_STRATEGY_SCAN_WORKERS")

	// ── Risk ──
	setFloat64(&cfg.Risk.Leverage, "FUNDINGBOT_RISK_LEVERAGE")
	setFloat64(&cfg.Risk.MaxAllowedSlippage, "FUNDINGBOT_RISK_MAX_ALLOWED_SLIPPAGE")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "FUNDINGBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "FUNDINGBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "FUNDINGBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "FUNDINGBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "FUNDINGBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "FUNDINGBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "FUNDINGBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "FUNDINGBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "FUNDINGBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "FUNDINGBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "FUNDINGBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FUNDINGBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FUNDINGBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FUNDINGBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "FUNDINGBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "FUNDINGBOT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.BookTTL, "FUNDINGBOT_REDIS_BOOK_TTL")
	setDuration(&cfg.Redis.EarnTTL, "FUNDINGBOT_REDIS_EARN_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "FUNDINGBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "FUNDINGBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "FUNDINGBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "FUNDINGBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "FUNDINGBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "FUNDINGBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "FUNDINGBOT_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "FUNDINGBOT_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "FUNDINGBOT_ARCHIVE_RETENTION_DAYS")
	setStr(&cfg.Archive.Cron, "FUNDINGBOT_ARCHIVE_CRON")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "FUNDINGBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "FUNDINGBOT_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "FUNDINGBOT_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "FUNDINGBOT_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "FUNDINGBOT_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "FUNDINGBOT_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "FUNDINGBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "FUNDINGBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "FUNDINGBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "FUNDINGBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "FUNDINGBOT_MODE")
	setStr(&cfg.LogLevel, "FUNDINGBOT_LOG_LEVEL")
}

func setStr(dst *string, key string) {
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

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		*dst = out
	}
}
