package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/afashi/funding-rate-arbitrage/internal/blob/s3"
	"github.com/afashi/funding-rate-arbitrage/internal/cache/redis"
	"github.com/afashi/funding-rate-arbitrage/internal/config"
	"github.com/afashi/funding-rate-arbitrage/internal/crypto"
	"github.com/afashi/funding-rate-arbitrage/internal/domain"
	"github.com/afashi/funding-rate-arbitrage/internal/marketdata"
	"github.com/afashi/funding-rate-arbitrage/internal/notify"
	"github.com/afashi/funding-rate-arbitrage/internal/platform/okx"
	"github.com/afashi/funding-rate-arbitrage/internal/server/ws"
	"github.com/afashi/funding-rate-arbitrage/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	FundingStore domain.FundingRateStore
	ScanStore    domain.ScanStore

	// Caches
	FundingCache domain.FundingCache
	BookCache    domain.BookCache
	EarnCache    domain.EarnCache
	RateLimiter  domain.RateLimiter
	LockManager  domain.LockManager

	// Exchange access
	OKX      *okx.Client
	Provider domain.MarketDataProvider

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier
	WSHub    *ws.Hub

	// Raw clients, kept for health probes.
	Redis    *redis.Client
	Postgres *postgres.Client
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	deps.Postgres = pgClient
	pool := pgClient.Pool()
	fundingStore := postgres.NewFundingRateStore(pool)
	deps.FundingStore = fundingStore
	deps.ScanStore = postgres.NewScanStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Redis = redisClient
	deps.FundingCache = redis.NewFundingCache(redisClient)
	deps.BookCache = redis.NewBookCache(redisClient)
	deps.EarnCache = redis.NewEarnCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)

	// --- Exchange client ---
	var auth *crypto.HMACAuth
	if cfg.OKX.ApiKey != "" {
		secret, err := crypto.LoadSecret(crypto.SecretConfig{
			RawSecret:     cfg.OKX.ApiSecret,
			EncryptedPath: cfg.OKX.EncryptedKeyPath,
			Password:      cfg.OKX.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: okx secret: %w", err)
		}
		auth = &crypto.HMACAuth{
			Key:        cfg.OKX.ApiKey,
			Secret:     secret,
			Passphrase: cfg.OKX.Passphrase,
		}
	}

	deps.OKX = okx.NewClient(okx.ClientConfig{
		BaseURL:   cfg.OKX.RestURL,
		Auth:      auth,
		Simulated: cfg.OKX.Simulated,
		Limiter:   deps.RateLimiter,
	})

	deps.Provider = marketdata.NewCachedProvider(
		deps.OKX,
		deps.FundingCache,
		deps.BookCache,
		deps.EarnCache,
		marketdata.CachedProviderConfig{
			BookTTL: cfg.Redis.BookTTL.Duration,
			EarnTTL: cfg.Redis.EarnTTL.Duration,
		},
		logger,
	)

	// --- S3 blob storage (only when archiving is enabled) ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, fundingStore, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if cfg.Server.Enabled {
		deps.WSHub = ws.NewHub(cfg.Mode, logger)
		senders = append(senders, deps.WSHub)
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
