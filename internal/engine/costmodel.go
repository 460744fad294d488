package engine

import (
	"fmt"
	"math"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

const (
	// DefaultFundingPeriodsPerDay matches the 8-hour funding interval of
	// most perpetual venues.
	DefaultFundingPeriodsPerDay = 3
	// DefaultDaysPerYear annualizes funding income.
	DefaultDaysPerYear = 365
)

// CostModel turns walker outputs plus fee, funding, yield, and borrow rates
// into a single net annualized return. Pure arithmetic; the only failure mode
// is a non-finite input.
type CostModel struct {
	FundingPeriodsPerDay float64
	DaysPerYear          float64
}

// NewCostModel returns a CostModel with zero fields replaced by defaults.
func NewCostModel(periodsPerDay, daysPerYear float64) CostModel {
	if periodsPerDay <= 0 {
		periodsPerDay = DefaultFundingPeriodsPerDay
	}
	if daysPerYear <= 0 {
		daysPerYear = DefaultDaysPerYear
	}
	return CostModel{FundingPeriodsPerDay: periodsPerDay, DaysPerYear: daysPerYear}
}

// CostInputs carries everything the model needs for one evaluation. Yield and
// borrow default to zero when not applicable.
type CostInputs struct {
	FundingRate float64 // signed fraction per funding period
	SpotFee     float64 // taker, fraction
	SwapFee     float64 // taker, fraction
	SpotFill    domain.FillResult
	SwapFill    domain.FillResult
	YieldRate   float64 // spot earn APR
	BorrowRate  float64 // borrow APR
}

// NetReturn is the annualized cost/benefit breakdown of one evaluation.
type NetReturn struct {
	FundingAPR   float64
	FeeCost      float64 // per-entry, spot + swap taker
	SlippageCost float64 // per-entry, spot + swap slippage
	TotalCostAPR float64 // entry and exit, fees and slippage doubled
	YieldRate    float64
	BorrowRate   float64
	NetAPR       float64
}

// Evaluate computes the net annualized return. Funding income is collected on
// the magnitude of the rate regardless of sign (direction trades the sign).
// Exit costs are conservatively assumed equal to entry costs since the close
// leg is not observed at decision time, hence the doubling.
func (m CostModel) Evaluate(in CostInputs) (NetReturn, error) {
	for _, v := range []float64{
		in.FundingRate, in.SpotFee, in.SwapFee,
		in.SpotFill.Slippage, in.SwapFill.Slippage,
		in.YieldRate, in.BorrowRate,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NetReturn{}, fmt.Errorf("engine: non-finite rate %v: %w", v, domain.ErrInvalidInput)
		}
	}

	fundingAPR := math.Abs(in.FundingRate) * m.FundingPeriodsPerDay * m.DaysPerYear
	slippageCost := in.SpotFill.Slippage + in.SwapFill.Slippage
	feeCost := in.SpotFee + in.SwapFee
	totalCostAPR := feeCost*2 + slippageCost*2
	netAPR := fundingAPR + in.YieldRate - totalCostAPR - in.BorrowRate

	return NetReturn{
		FundingAPR:   fundingAPR,
		FeeCost:      feeCost,
		SlippageCost: slippageCost,
		TotalCostAPR: totalCostAPR,
		YieldRate:    in.YieldRate,
		BorrowRate:   in.BorrowRate,
		NetAPR:       netAPR,
	}, nil
}
