package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
	"github.com/afashi/funding-rate-arbitrage/internal/engine"
	"github.com/afashi/funding-rate-arbitrage/internal/feed"
	"github.com/afashi/funding-rate-arbitrage/internal/pipeline"
	"github.com/afashi/funding-rate-arbitrage/internal/platform/okx"
)

// ScanMode runs the opportunity scanner on a fixed interval. Each cycle
// evaluates the full funding universe, records the outcome, and pushes
// accepted opportunities to the configured notifiers.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.Info("starting scan mode")

	scanLoop := a.buildScanLoop(deps)
	archiver := a.buildArchiver(deps)

	orch := pipeline.NewOrchestrator(
		scanLoop,
		nil,
		nil,
		archiver,
		a.cfg.Strategy.ScanInterval.Duration,
		a.cfg.Strategy.CollectInterval.Duration,
		a.cfg.Archive.Cron,
		a.logger,
	)
	return orch.Run(ctx)
}

// CollectMode runs funding-rate collection only: a REST polling loop that
// snapshots the full universe, plus a websocket feed that keeps the cache
// fresh between polls. No scanning happens in this mode.
func (a *App) CollectMode(ctx context.Context, deps *Dependencies) error {
	a.logger.Info("starting collect mode")

	collector := pipeline.NewFundingCollector(deps.OKX, deps.FundingCache, deps.FundingStore, a.logger)
	wsFeed, err := a.buildFeed(ctx, deps)
	if err != nil {
		return err
	}
	archiver := a.buildArchiver(deps)

	orch := pipeline.NewOrchestrator(
		nil,
		collector,
		wsFeed,
		archiver,
		a.cfg.Strategy.ScanInterval.Duration,
		a.cfg.Strategy.CollectInterval.Duration,
		a.cfg.Archive.Cron,
		a.logger,
	)
	return orch.Run(ctx)
}

// FullMode runs collection and scanning together: the collector and the
// websocket feed keep the funding cache current while the scanner evaluates
// the universe on its own interval.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.Info("starting full mode")

	scanLoop := a.buildScanLoop(deps)
	collector := pipeline.NewFundingCollector(deps.OKX, deps.FundingCache, deps.FundingStore, a.logger)
	wsFeed, err := a.buildFeed(ctx, deps)
	if err != nil {
		return err
	}
	archiver := a.buildArchiver(deps)

	orch := pipeline.NewOrchestrator(
		scanLoop,
		collector,
		wsFeed,
		archiver,
		a.cfg.Strategy.ScanInterval.Duration,
		a.cfg.Strategy.CollectInterval.Duration,
		a.cfg.Archive.Cron,
		a.logger,
	)
	return orch.Run(ctx)
}

// buildScanLoop assembles the evaluation stack: cost model, evaluator, and
// scanner, all parameterized from the strategy and risk configuration.
func (a *App) buildScanLoop(deps *Dependencies) *pipeline.ScanLoop {
	model := engine.NewCostModel(a.cfg.Strategy.FundingPeriodsPerDay, engine.DefaultDaysPerYear)

	evaluator := engine.NewEvaluator(deps.Provider, nil, model, engine.EvaluatorConfig{
		MaxAllowedSlippage:  a.cfg.Risk.MaxAllowedSlippage,
		MinAnnualizedReturn: a.cfg.Strategy.MinAnnualizedReturn,
		EnableSpotEarning:   a.cfg.Strategy.EnableSpotEarning,
		Leverage:            a.cfg.Risk.Leverage,
	}, a.logger)

	scanner := engine.NewScanner(deps.Provider, evaluator, engine.ScannerConfig{
		CapitalPerTradeRatio:       a.cfg.Strategy.CapitalPerTradeRatio,
		EnableNegativeRateStrategy: a.cfg.Strategy.EnableNegativeRateStrategy,
		Workers:                    a.cfg.Strategy.ScanWorkers,
	}, a.logger)

	return pipeline.NewScanLoop(scanner, deps.ScanStore, deps.Notifier, a.logger)
}

// buildArchiver returns the archive job when archiving is enabled, nil
// otherwise.
func (a *App) buildArchiver(deps *Dependencies) *pipeline.Archiver {
	if !a.cfg.Archive.Enabled || deps.Archiver == nil {
		return nil
	}
	return pipeline.NewArchiver(deps.Archiver, deps.LockManager, a.cfg.Archive.RetentionDays, a.logger)
}

// buildFeed resolves the current funding universe once over REST and
// subscribes the websocket feed to the matching swap instruments. Every push
// lands in the funding cache so the next scan sees it without a REST round
// trip.
func (a *App) buildFeed(ctx context.Context, deps *Dependencies) (*feed.OKXWSFeed, error) {
	rates, err := deps.OKX.FundingRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: resolving funding universe: %w", err)
	}

	instIDs := make([]string, 0, len(rates))
	for symbol := range rates {
		instIDs = append(instIDs, okx.SwapInstID(symbol))
	}
	a.logger.Info("subscribing to funding-rate feed", slog.Int("instruments", len(instIDs)))

	onFunding := func(ctx context.Context, fr domain.FundingRate) {
		if err := deps.FundingCache.SetRate(ctx, fr); err != nil {
			a.logger.Warn("caching funding push failed",
				slog.String("symbol", fr.Symbol),
				slog.String("error", err.Error()),
			)
		}
	}

	return feed.NewOKXWSFeed(a.cfg.OKX.WsPublicURL, instIDs, onFunding, a.logger), nil
}
