package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// EvaluatorConfig holds the policy knobs for one evaluator instance. It is
// constructed once, validated by the config layer, and never mutated.
type EvaluatorConfig struct {
	MaxAllowedSlippage  float64 // fraction, per leg
	MinAnnualizedReturn float64 // fraction
	EnableSpotEarning   bool
	Leverage            float64
}

// Evaluator runs one symbol+direction evaluation: fetch books, walk both
// legs, gate on slippage, run the cost model, and apply the return threshold.
// It holds no mutable state; every evaluation is independent.
type Evaluator struct {
	provider domain.MarketDataProvider
	borrow   domain.BorrowRateProvider
	model    CostModel
	cfg      EvaluatorConfig
	logger   *slog.Logger
}

// NewEvaluator creates an Evaluator. A nil borrow provider defaults to
// ZeroBorrowRate.
func NewEvaluator(provider domain.MarketDataProvider, borrow domain.BorrowRateProvider, model CostModel, cfg EvaluatorConfig, logger *slog.Logger) *Evaluator {
	if borrow == nil {
		borrow = domain.ZeroBorrowRate{}
	}
	return &Evaluator{
		provider: provider,
		borrow:   borrow,
		model:    model,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "evaluator")),
	}
}

// Evaluate analyzes one candidate and returns a Decision when it clears every
// gate. Rejections come back as sentinel errors (ErrDataGap,
// ErrInsufficientLiquidity, ErrSlippageExceeded, ErrBelowThreshold) so the
// scanner can count them; all of them are terminal "no opportunity" outcomes
// for this symbol/direction/cycle, not conditions to retry. ErrInvalidInput
// indicates a caller or config defect.
func (e *Evaluator) Evaluate(ctx context.Context, symbol string, fundingRate float64, direction domain.Direction, capital float64) (*domain.Decision, error) {
	books, err := e.provider.OrderBooks(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: order books: %w", symbol, err)
	}
	if !books.Complete() {
		return nil, fmt.Errorf("evaluate %s: %w", symbol, domain.ErrDataGap)
	}

	// SHORT buys spot (asks) and shorts the swap (bids); LONG sells spot
	// (bids) and goes long the swap (asks).
	spotSide, swapSide := books.Spot.Asks, books.Swap.Bids
	if direction == domain.DirectionLong {
		spotSide, swapSide = books.Spot.Bids, books.Swap.Asks
	}

	spotFill, err := Walk(spotSide, capital)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: spot leg: %w", symbol, err)
	}
	swapFill, err := Walk(swapSide, capital)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: swap leg: %w", symbol, err)
	}

	if spotFill.Slippage > e.cfg.MaxAllowedSlippage || swapFill.Slippage > e.cfg.MaxAllowedSlippage {
		e.logger.DebugContext(ctx, "slippage above ceiling",
			slog.String("symbol", symbol),
			slog.Float64("spot_slippage", spotFill.Slippage),
			slog.Float64("swap_slippage", swapFill.Slippage),
			slog.Float64("max_allowed", e.cfg.MaxAllowedSlippage),
		)
		return nil, fmt.Errorf("evaluate %s: %w", symbol, domain.ErrSlippageExceeded)
	}

	spotFee, err := e.provider.TakerFee(ctx, symbol, domain.MarketSpot)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: spot fee: %w", symbol, err)
	}
	swapFee, err := e.provider.TakerFee(ctx, symbol, domain.MarketSwap)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: swap fee: %w", symbol, err)
	}

	// Yield applies only when the spot leg is held long; borrowing only when
	// negative funding forces a spot short.
	var yieldRate float64
	if direction == domain.DirectionShort && e.cfg.EnableSpotEarning {
		earn, err := e.provider.EarnRates(ctx)
		if err != nil {
			e.logger.WarnContext(ctx, "earn rates unavailable, assuming zero",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		} else {
			yieldRate = earn[domain.BaseAsset(symbol)]
		}
	}
	var borrowRate float64
	if fundingRate < 0 {
		borrowRate, err = e.borrow.BorrowRate(ctx, domain.BaseAsset(symbol))
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: borrow rate: %w", symbol, err)
		}
	}

	ret, err := e.model.Evaluate(CostInputs{
		FundingRate: fundingRate,
		SpotFee:     spotFee,
		SwapFee:     swapFee,
		SpotFill:    spotFill,
		SwapFill:    swapFill,
		YieldRate:   yieldRate,
		BorrowRate:  borrowRate,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", symbol, err)
	}

	if ret.NetAPR <= e.cfg.MinAnnualizedReturn {
		return nil, fmt.Errorf("evaluate %s: %w", symbol, domain.ErrBelowThreshold)
	}

	reason := fmt.Sprintf(
		"net APR %.4f > threshold %.4f (funding %.4f + yield %.4f - cost %.4f - borrow %.4f)",
		ret.NetAPR, e.cfg.MinAnnualizedReturn, ret.FundingAPR, ret.YieldRate, ret.TotalCostAPR, ret.BorrowRate,
	)
	e.logger.InfoContext(ctx, "opportunity found",
		slog.String("symbol", symbol),
		slog.String("direction", string(direction)),
		slog.Float64("net_apr", ret.NetAPR),
	)

	return &domain.Decision{
		Symbol:       symbol,
		Direction:    direction,
		Reason:       reason,
		Leverage:     e.cfg.Leverage,
		Capital:      capital,
		FundingRate:  fundingRate,
		SpotAskPrice: books.Spot.Asks.Best(),
		SpotBidPrice: books.Spot.Bids.Best(),
		SwapAskPrice: books.Swap.Asks.Best(),
		SwapBidPrice: books.Swap.Bids.Best(),
		SpotFill:     spotFill,
		SwapFill:     swapFill,
		FeeCost:      ret.FeeCost,
		SlippageCost: ret.SlippageCost,
		YieldRate:    ret.YieldRate,
		BorrowRate:   ret.BorrowRate,
		NetAPR:       ret.NetAPR,
		DetectedAt:   books.Timestamp,
	}, nil
}

// IsSkip reports whether err is one of the expected non-fatal rejection
// categories that a scan swallows and counts.
func IsSkip(err error) bool {
	return errors.Is(err, domain.ErrDataGap) ||
		errors.Is(err, domain.ErrInsufficientLiquidity) ||
		errors.Is(err, domain.ErrSlippageExceeded) ||
		errors.Is(err, domain.ErrBelowThreshold)
}
