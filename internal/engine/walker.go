// Package engine implements the opportunity-evaluation core: walking order
// books to estimate fills, combining funding and cost economics into a net
// annualized return, and scanning the funding universe for tradeable
// decisions.
package engine

import (
	"fmt"
	"math"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// Walk fills a capital budget (quote currency) against one ordered book side
// and returns the volume-weighted average price and the slippage against the
// top level. It consumes levels in the order given, taking a partial amount
// from the level that satisfies the remaining budget, and never backtracks.
//
// It returns domain.ErrInsufficientLiquidity when the side's cumulative
// notional is below capital, domain.ErrDataGap for an empty side, and
// domain.ErrInvalidInput for a non-positive or non-finite capital.
func Walk(side domain.OrderBookSide, capital float64) (domain.FillResult, error) {
	if math.IsNaN(capital) || math.IsInf(capital, 0) || capital <= 0 {
		return domain.FillResult{}, fmt.Errorf("engine: walk capital %v: %w", capital, domain.ErrInvalidInput)
	}
	if len(side) == 0 {
		return domain.FillResult{}, fmt.Errorf("engine: walk empty book side: %w", domain.ErrDataGap)
	}

	best := side[0].Price
	remaining := capital
	var filledValue, filledQty float64

	for _, lvl := range side {
		levelValue := lvl.Notional()
		if remaining <= levelValue {
			// This level satisfies the rest of the budget.
			qty := remaining / lvl.Price
			filledValue += qty * lvl.Price
			filledQty += qty
			remaining = 0
			break
		}
		filledValue += levelValue
		filledQty += lvl.Quantity
		remaining -= levelValue
	}

	if remaining > 0 {
		return domain.FillResult{}, fmt.Errorf("engine: book depth below %.2f: %w", capital, domain.ErrInsufficientLiquidity)
	}
	if filledQty == 0 {
		return domain.FillResult{}, fmt.Errorf("engine: degenerate fill: %w", domain.ErrInvalidInput)
	}

	avg := filledValue / filledQty
	return domain.FillResult{
		AveragePrice: avg,
		Slippage:     math.Abs(avg-best) / best,
	}, nil
}
