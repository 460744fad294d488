package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

func TestCostModel_Evaluate(t *testing.T) {
	model := NewCostModel(3, 365)

	ret, err := model.Evaluate(CostInputs{
		FundingRate: 0.0003,
		SpotFee:     0.0005,
		SwapFee:     0.0005,
	})

	require.NoError(t, err)
	// 0.0003 * 3 * 365
	assert.InDelta(t, 0.3285, ret.FundingAPR, 1e-9)
	assert.InDelta(t, 0.001, ret.FeeCost, 1e-9)
	assert.InDelta(t, 0.002, ret.TotalCostAPR, 1e-9)
	assert.InDelta(t, 0.3265, ret.NetAPR, 1e-9)
}

func TestCostModel_NegativeRateSameMagnitude(t *testing.T) {
	model := NewCostModel(3, 365)

	pos, err := model.Evaluate(CostInputs{FundingRate: 0.0003})
	require.NoError(t, err)
	neg, err := model.Evaluate(CostInputs{FundingRate: -0.0003})
	require.NoError(t, err)

	assert.Equal(t, pos.FundingAPR, neg.FundingAPR)
	assert.Equal(t, pos.NetAPR, neg.NetAPR)
}

func TestCostModel_SlippageDoubledForExit(t *testing.T) {
	model := NewCostModel(3, 365)

	ret, err := model.Evaluate(CostInputs{
		FundingRate: 0.001,
		SpotFill:    domain.FillResult{Slippage: 0.002},
		SwapFill:    domain.FillResult{Slippage: 0.001},
	})

	require.NoError(t, err)
	assert.InDelta(t, 0.003, ret.SlippageCost, 1e-9)
	assert.InDelta(t, 0.006, ret.TotalCostAPR, 1e-9)
}

func TestCostModel_YieldAndBorrow(t *testing.T) {
	model := NewCostModel(3, 365)

	ret, err := model.Evaluate(CostInputs{
		FundingRate: 0.0003,
		YieldRate:   0.02,
		BorrowRate:  0.05,
	})

	require.NoError(t, err)
	assert.InDelta(t, 0.3285+0.02-0.05, ret.NetAPR, 1e-9)
}

func TestCostModel_NonFiniteInput(t *testing.T) {
	model := NewCostModel(3, 365)

	_, err := model.Evaluate(CostInputs{FundingRate: math.NaN()})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = model.Evaluate(CostInputs{BorrowRate: math.Inf(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewCostModel_Defaults(t *testing.T) {
	model := NewCostModel(0, 0)

	assert.Equal(t, float64(DefaultFundingPeriodsPerDay), model.FundingPeriodsPerDay)
	assert.Equal(t, float64(DefaultDaysPerYear), model.DaysPerYear)
}

func TestCostModel_NetAPRMonotonicity(t *testing.T) {
	model := NewCostModel(3, 365)
	base := CostInputs{
		FundingRate: 0.0003,
		SpotFee:     0.0005,
		SwapFee:     0.0005,
		SpotFill:    domain.FillResult{Slippage: 0.0002},
		SwapFill:    domain.FillResult{Slippage: 0.0002},
		YieldRate:   0.02,
		BorrowRate:  0.01,
	}

	tests := []struct {
		name    string
		bump    func(in CostInputs) CostInputs
		improve bool // true: bumped input must raise NetAPR
	}{
		{
			name:    "higher funding magnitude raises net",
			bump:    func(in CostInputs) CostInputs { in.FundingRate = 0.0006; return in },
			improve: true,
		},
		{
			name:    "more negative funding raises net equally",
			bump:    func(in CostInputs) CostInputs { in.FundingRate = -0.0006; return in },
			improve: true,
		},
		{
			name:    "higher yield raises net",
			bump:    func(in CostInputs) CostInputs { in.YieldRate = 0.05; return in },
			improve: true,
		},
		{
			name:    "higher spot fee lowers net",
			bump:    func(in CostInputs) CostInputs { in.SpotFee = 0.001; return in },
			improve: false,
		},
		{
			name:    "higher swap fee lowers net",
			bump:    func(in CostInputs) CostInputs { in.SwapFee = 0.001; return in },
			improve: false,
		},
		{
			name:    "higher spot slippage lowers net",
			bump:    func(in CostInputs) CostInputs { in.SpotFill.Slippage = 0.001; return in },
			improve: false,
		},
		{
			name:    "higher swap slippage lowers net",
			bump:    func(in CostInputs) CostInputs { in.SwapFill.Slippage = 0.001; return in },
			improve: false,
		},
		{
			name:    "higher borrow lowers net",
			bump:    func(in CostInputs) CostInputs { in.BorrowRate = 0.03; return in },
			improve: false,
		},
	}

	baseline, err := model.Evaluate(base)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bumped, err := model.Evaluate(tt.bump(base))
			require.NoError(t, err)
			if tt.improve {
				assert.Greater(t, bumped.NetAPR, baseline.NetAPR)
			} else {
				assert.Less(t, bumped.NetAPR, baseline.NetAPR)
			}
		})
	}
}
