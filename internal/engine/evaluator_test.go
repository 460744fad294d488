package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider is a canned MarketDataProvider for engine tests.
type fakeProvider struct {
	rates    map[string]float64
	books    map[string]domain.MarketBooks
	spotFee  float64
	swapFee  float64
	earn     map[string]float64
	equity   float64
	booksErr error
	earnErr  error
}

func (f *fakeProvider) FundingRates(ctx context.Context) (map[string]float64, error) {
	return f.rates, nil
}

func (f *fakeProvider) OrderBooks(ctx context.Context, symbol string) (domain.MarketBooks, error) {
	if f.booksErr != nil {
		return domain.MarketBooks{}, f.booksErr
	}
	return f.books[symbol], nil
}

func (f *fakeProvider) TakerFee(ctx context.Context, symbol string, kind domain.MarketKind) (float64, error) {
	if kind == domain.MarketSpot {
		return f.spotFee, nil
	}
	return f.swapFee, nil
}

func (f *fakeProvider) EarnRates(ctx context.Context) (map[string]float64, error) {
	if f.earnErr != nil {
		return nil, f.earnErr
	}
	return f.earn, nil
}

func (f *fakeProvider) TotalEquity(ctx context.Context) (float64, error) {
	return f.equity, nil
}

// fixedBorrow returns the same borrow rate for every asset.
type fixedBorrow struct {
	rate float64
	err  error
}

func (b fixedBorrow) BorrowRate(ctx context.Context, asset string) (float64, error) {
	return b.rate, b.err
}

// deepBooks builds a four-sided book with enough depth that any reasonable
// capital fills at the top level.
func deepBooks(symbol string, ts time.Time) domain.MarketBooks {
	return domain.MarketBooks{
		Symbol: symbol,
		Spot: domain.OrderBook{
			Asks: domain.OrderBookSide{{Price: 100.1, Quantity: 10000}},
			Bids: domain.OrderBookSide{{Price: 100.0, Quantity: 10000}},
		},
		Swap: domain.OrderBook{
			Asks: domain.OrderBookSide{{Price: 100.3, Quantity: 10000}},
			Bids: domain.OrderBookSide{{Price: 100.2, Quantity: 10000}},
		},
		Timestamp: ts,
	}
}

func defaultEvalConfig() EvaluatorConfig {
	return EvaluatorConfig{
		MaxAllowedSlippage:  0.01,
		MinAnnualizedReturn: 0.15,
		EnableSpotEarning:   true,
		Leverage:            3,
	}
}

func TestEvaluator_AcceptsProfitableShort(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		books:   map[string]domain.MarketBooks{"BTC/USDT": deepBooks("BTC/USDT", ts)},
		spotFee: 0.0008,
		swapFee: 0.0005,
		earn:    map[string]float64{"BTC": 0.02},
	}
	ev := NewEvaluator(provider, nil, NewCostModel(3, 365), defaultEvalConfig(), discardLogger())

	dec, err := ev.Evaluate(context.Background(), "BTC/USDT", 0.001, domain.DirectionShort, 5000)

	require.NoError(t, err)
	require.NotNil(t, dec)
	assert.Equal(t, "BTC/USDT", dec.Symbol)
	assert.Equal(t, domain.DirectionShort, dec.Direction)
	assert.Equal(t, 5000.0, dec.Capital)
	assert.Equal(t, 3.0, dec.Leverage)
	assert.Equal(t, ts, dec.DetectedAt)
	assert.Equal(t, 100.1, dec.SpotAskPrice)
	assert.Equal(t, 100.2, dec.SwapBidPrice)
	// funding APR 1.095 + yield 0.02 - cost (0.0013*2)
	assert.InDelta(t, 1.095+0.02-0.0026, dec.NetAPR, 1e-9)
	assert.InDelta(t, 0.02, dec.YieldRate, 1e-9)
	assert.Zero(t, dec.BorrowRate)
	assert.Contains(t, dec.Reason, "net APR")
}

func TestEvaluator_LongUsesOppositeSides(t *testing.T) {
	ts := time.Now().UTC()
	books := domain.MarketBooks{
		Symbol: "ETH/USDT",
		Spot: domain.OrderBook{
			Asks: domain.OrderBookSide{{Price: 200.2, Quantity: 10000}},
			Bids: domain.OrderBookSide{{Price: 200.0, Quantity: 10000}},
		},
		Swap: domain.OrderBook{
			// Long enters at the swap ask; make it the only side with
			// meaningful depth structure.
			Asks: domain.OrderBookSide{{Price: 200.4, Quantity: 10000}},
			Bids: domain.OrderBookSide{{Price: 200.3, Quantity: 10000}},
		},
		Timestamp: ts,
	}
	provider := &fakeProvider{
		books: map[string]domain.MarketBooks{"ETH/USDT": books},
	}
	ev := NewEvaluator(provider, fixedBorrow{rate: 0.03}, NewCostModel(3, 365), defaultEvalConfig(), discardLogger())

	dec, err := ev.Evaluate(context.Background(), "ETH/USDT", -0.001, domain.DirectionLong, 5000)

	require.NoError(t, err)
	// Long sells spot at the bid and buys the swap at the ask.
	assert.InDelta(t, 200.0, dec.SpotFill.AveragePrice, 1e-9)
	assert.InDelta(t, 200.4, dec.SwapFill.AveragePrice, 1e-9)
	// Negative funding forces a spot short, so borrow cost applies and
	// spot-earn yield does not.
	assert.InDelta(t, 0.03, dec.BorrowRate, 1e-9)
	assert.Zero(t, dec.YieldRate)
}

func TestEvaluator_DataGap(t *testing.T) {
	books := deepBooks("BTC/USDT", time.Now())
	books.Swap.Bids = nil
	provider := &fakeProvider{books: map[string]domain.MarketBooks{"BTC/USDT": books}}
	ev := NewEvaluator(provider, nil, NewCostModel(3, 365), defaultEvalConfig(), discardLogger())

	_, err := ev.Evaluate(context.Background(), "BTC/USDT", 0.001, domain.DirectionShort, 5000)

	assert.ErrorIs(t, err, domain.ErrDataGap)
}

func TestEvaluator_InsufficientDepth(t *testing.T) {
	books := deepBooks("BTC/USDT", time.Now())
	books.Spot.Asks = domain.OrderBookSide{{Price: 100, Quantity: 0.01}}
	provider := &fakeProvider{books: map[string]domain.MarketBooks{"BTC/USDT": books}}
	ev := NewEvaluator(provider, nil, NewCostModel(3, 365), defaultEvalConfig(), discardLogger())

	_, err := ev.Evaluate(context.Background(), "BTC/USDT", 0.001, domain.DirectionShort, 5000)

	assert.ErrorIs(t, err, domain.ErrInsufficientLiquidity)
}

func TestEvaluator_SlippageGate(t *testing.T) {
	books := deepBooks("BTC/USDT", time.Now())
	// A thin top level pushes the fill deep into a much worse second level.
	books.Spot.Asks = domain.OrderBookSide{
		{Price: 100, Quantity: 0.01},
		{Price: 150, Quantity: 10000},
	}
	provider := &fakeProvider{books: map[string]domain.MarketBooks{"BTC/USDT": books}}
	ev := NewEvaluator(provider, nil, NewCostModel(3, 365), defaultEvalConfig(), discardLogger())

	_, err := ev.Evaluate(context.Background(), "BTC/USDT", 0.001, domain.DirectionShort, 5000)

	assert.ErrorIs(t, err, domain.ErrSlippageExceeded)
}

func TestEvaluator_BelowThreshold(t *testing.T) {
	provider := &fakeProvider{
		books: map[string]domain.MarketBooks{"BTC/USDT": deepBooks("BTC/USDT", time.Now())},
	}
	ev := NewEvaluator(provider, nil, NewCostModel(3, 365), defaultEvalConfig(), discardLogger())

	// 0.00001 * 3 * 365 = 0.011 APR, well under the 0.15 threshold.
	_, err := ev.Evaluate(context.Background(), "BTC/USDT", 0.00001, domain.DirectionShort, 5000)

	assert.ErrorIs(t, err, domain.ErrBelowThreshold)
}

func TestEvaluator_EarnRatesUnavailableAssumesZero(t *testing.T) {
	provider := &fakeProvider{
		books:   map[string]domain.MarketBooks{"BTC/USDT": deepBooks("BTC/USDT", time.Now())},
		earnErr: errors.New("earn endpoint down"),
	}
	ev := NewEvaluator(provider, nil, NewCostModel(3, 365), defaultEvalConfig(), discardLogger())

	dec, err := ev.Evaluate(context.Background(), "BTC/USDT", 0.001, domain.DirectionShort, 5000)

	require.NoError(t, err)
	assert.Zero(t, dec.YieldRate)
}

func TestIsSkip(t *testing.T) {
	for _, err := range []error{
		domain.ErrDataGap,
		domain.ErrInsufficientLiquidity,
		domain.ErrSlippageExceeded,
		domain.ErrBelowThreshold,
	} {
		assert.True(t, IsSkip(err))
	}
	assert.False(t, IsSkip(domain.ErrInvalidInput))
	assert.False(t, IsSkip(errors.New("network down")))
}

func TestEvaluator_DeterministicForIdenticalSnapshot(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		books:   map[string]domain.MarketBooks{"BTC/USDT": deepBooks("BTC/USDT", ts)},
		spotFee: 0.0008,
		swapFee: 0.0005,
		earn:    map[string]float64{"BTC": 0.02},
	}
	ev := NewEvaluator(provider, nil, NewCostModel(3, 365), defaultEvalConfig(), discardLogger())

	first, err := ev.Evaluate(context.Background(), "BTC/USDT", 0.001, domain.DirectionShort, 5000)
	require.NoError(t, err)
	second, err := ev.Evaluate(context.Background(), "BTC/USDT", 0.001, domain.DirectionShort, 5000)
	require.NoError(t, err)

	// The evaluation carries no wall-clock or random state; identical
	// snapshots must produce identical decisions, field for field.
	assert.Equal(t, *first, *second)
}
