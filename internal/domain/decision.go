package domain

import "time"

// Decision is the fully self-describing record of one accepted opportunity.
// It is created only by a successful evaluation, never mutated afterwards,
// and is the sole artifact handed across the engine boundary to execution.
type Decision struct {
	ID        string // assigned by the scanner, UUID
	Symbol    string
	Direction Direction
	Reason    string // human-readable threshold comparison and breakdown

	// Sizing parameters the execution layer needs.
	Leverage float64
	Capital  float64 // quote currency committed to this trade

	// Top-of-book quotes at decision time.
	FundingRate  float64
	SpotAskPrice float64
	SpotBidPrice float64
	SwapAskPrice float64
	SwapBidPrice float64

	// Walker outputs for both legs.
	SpotFill FillResult
	SwapFill FillResult

	// Cost and benefit breakdown, all annualized fractions except the
	// per-entry fee and slippage components.
	FeeCost      float64 // spot taker + swap taker, single entry
	SlippageCost float64 // spot + swap slippage, single entry
	YieldRate    float64 // spot earn APR, 0 unless SHORT with earning enabled
	BorrowRate   float64 // borrow APR, 0 unless supplied by a provider
	NetAPR       float64

	DetectedAt time.Time
}

// Notional returns the total two-leg notional the decision commits.
func (d Decision) Notional() float64 {
	return d.Capital * 2
}
