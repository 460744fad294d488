// Package pipeline contains the long-running loops: the scan cycle, the
// funding-rate collector, and the cold-storage archiver.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// FundingFetcher retrieves the current funding-rate universe, with funding
// timestamps, from the exchange.
type FundingFetcher interface {
	FundingRateHistory(ctx context.Context) ([]domain.FundingRate, error)
}

// FundingCollector periodically fetches the funding-rate universe and fans
// it out to the cache and the history store.
type FundingCollector struct {
	fetcher FundingFetcher
	cache   domain.FundingCache
	store   domain.FundingRateStore
	logger  *slog.Logger
}

// NewFundingCollector creates a new FundingCollector. The store may be nil
// when history persistence is disabled; the cache is always required.
func NewFundingCollector(fetcher FundingFetcher, cache domain.FundingCache, store domain.FundingRateStore, logger *slog.Logger) *FundingCollector {
	return &FundingCollector{
		fetcher: fetcher,
		cache:   cache,
		store:   store,
		logger:  logger.With(slog.String("component", "funding_collector")),
	}
}

// Run executes a single collection cycle.
func (c *FundingCollector) Run(ctx context.Context) error {
	rates, err := c.fetcher.FundingRateHistory(ctx)
	if err != nil {
		return fmt.Errorf("collector: fetch funding rates: %w", err)
	}
	if len(rates) == 0 {
		c.logger.WarnContext(ctx, "funding universe empty")
		return nil
	}

	if err := c.cache.SetRates(ctx, rates); err != nil {
		return fmt.Errorf("collector: cache funding rates: %w", err)
	}

	if c.store != nil {
		if err := c.store.InsertBatch(ctx, rates); err != nil {
			return fmt.Errorf("collector: persist funding rates: %w", err)
		}
	}

	c.logger.InfoContext(ctx, "funding rates collected", slog.Int("symbols", len(rates)))
	return nil
}

// RunLoop runs the collector on a repeating interval until the context is
// cancelled. A failed cycle is logged and retried on the next tick.
func (c *FundingCollector) RunLoop(ctx context.Context, interval time.Duration) error {
	// Run immediately on start.
	if err := c.Run(ctx); err != nil {
		c.logger.Error("funding collection failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("funding collector loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := c.Run(ctx); err != nil {
				c.logger.Error("funding collection failed", slog.String("error", err.Error()))
			}
		}
	}
}
