// Package marketdata composes the exchange client with the caching layer
// behind the domain.MarketDataProvider interface.
package marketdata

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// CachedProviderConfig holds the cache TTLs.
type CachedProviderConfig struct {
	BookTTL time.Duration
	EarnTTL time.Duration
}

// CachedProvider wraps a MarketDataProvider with read-through caches so a
// scan cycle does not refetch data it just pulled. Taker fees are cached in
// process for the lifetime of the provider; fee tiers change rarely and a
// restart picks up the new tier.
type CachedProvider struct {
	inner   domain.MarketDataProvider
	funding domain.FundingCache
	books   domain.BookCache
	earn    domain.EarnCache
	cfg     CachedProviderConfig
	logger  *slog.Logger

	feeMu sync.RWMutex
	fees  map[string]float64
}

// NewCachedProvider creates a CachedProvider. Any cache may be nil, in which
// case the corresponding reads go straight to the inner provider.
func NewCachedProvider(
	inner domain.MarketDataProvider,
	funding domain.FundingCache,
	books domain.BookCache,
	earn domain.EarnCache,
	cfg CachedProviderConfig,
	logger *slog.Logger,
) *CachedProvider {
	if cfg.BookTTL <= 0 {
		cfg.BookTTL = 3 * time.Second
	}
	if cfg.EarnTTL <= 0 {
		cfg.EarnTTL = 10 * time.Minute
	}
	return &CachedProvider{
		inner:   inner,
		funding: funding,
		books:   books,
		earn:    earn,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "marketdata")),
		fees:    make(map[string]float64),
	}
}

// FundingRates returns the funding universe, preferring the cache populated
// by the collector or the live feed.
func (p *CachedProvider) FundingRates(ctx context.Context) (map[string]float64, error) {
	if p.funding != nil {
		rates, err := p.funding.GetRates(ctx)
		if err == nil && len(rates) > 0 {
			return rates, nil
		}
	}

	rates, err := p.inner.FundingRates(ctx)
	if err != nil {
		return nil, err
	}
	return rates, nil
}

// OrderBooks returns the paired spot and swap books for a symbol, checking
// the short-TTL cache first and falling back to the exchange on a miss.
func (p *CachedProvider) OrderBooks(ctx context.Context, symbol string) (domain.MarketBooks, error) {
	if p.books != nil {
		books, err := p.books.GetBooks(ctx, symbol)
		if err == nil {
			return books, nil
		}
	}

	books, err := p.inner.OrderBooks(ctx, symbol)
	if err != nil {
		return domain.MarketBooks{}, err
	}

	if p.books != nil {
		if cacheErr := p.books.SetBooks(ctx, books, p.cfg.BookTTL); cacheErr != nil {
			p.logger.WarnContext(ctx, "book cache set failed",
				slog.String("symbol", symbol),
				slog.String("error", cacheErr.Error()),
			)
		}
	}
	return books, nil
}

// TakerFee returns the taker fee for a symbol and market kind, memoised in
// process.
func (p *CachedProvider) TakerFee(ctx context.Context, symbol string, kind domain.MarketKind) (float64, error) {
	key := symbol + ":" + string(kind)

	p.feeMu.RLock()
	fee, ok := p.fees[key]
	p.feeMu.RUnlock()
	if ok {
		return fee, nil
	}

	fee, err := p.inner.TakerFee(ctx, symbol, kind)
	if err != nil {
		return 0, err
	}

	p.feeMu.Lock()
	p.fees[key] = fee
	p.feeMu.Unlock()
	return fee, nil
}

// EarnRates returns the lending-rate table, checking the cache first and
// back-filling it on a miss.
func (p *CachedProvider) EarnRates(ctx context.Context) (map[string]float64, error) {
	if p.earn != nil {
		rates, err := p.earn.GetRates(ctx)
		if err == nil && len(rates) > 0 {
			return rates, nil
		}
	}

	rates, err := p.inner.EarnRates(ctx)
	if err != nil {
		return nil, err
	}

	if p.earn != nil {
		if cacheErr := p.earn.SetRates(ctx, rates, p.cfg.EarnTTL); cacheErr != nil {
			p.logger.WarnContext(ctx, "earn cache set failed",
				slog.String("error", cacheErr.Error()),
			)
		}
	}
	return rates, nil
}

// TotalEquity is never cached; the balance must reflect the account at scan
// time.
func (p *CachedProvider) TotalEquity(ctx context.Context) (float64, error) {
	return p.inner.TotalEquity(ctx)
}

// Compile-time interface check.
var _ domain.MarketDataProvider = (*CachedProvider)(nil)
