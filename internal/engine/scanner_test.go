package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

func newTestScanner(provider *fakeProvider, cfg ScannerConfig) *Scanner {
	ev := NewEvaluator(provider, nil, NewCostModel(3, 365), defaultEvalConfig(), discardLogger())
	return NewScanner(provider, ev, cfg, discardLogger())
}

func TestScanner_EmptyUniverse(t *testing.T) {
	provider := &fakeProvider{rates: map[string]float64{}, equity: 10000}
	s := newTestScanner(provider, ScannerConfig{CapitalPerTradeRatio: 0.1})

	decisions, report, err := s.Scan(context.Background())

	require.NoError(t, err)
	assert.Empty(t, decisions)
	assert.Zero(t, report.Evaluated)
	assert.False(t, report.FinishedAt.IsZero())
}

func TestScanner_ZeroEquity(t *testing.T) {
	provider := &fakeProvider{
		rates:  map[string]float64{"BTC/USDT": 0.001},
		equity: 0,
	}
	s := newTestScanner(provider, ScannerConfig{CapitalPerTradeRatio: 0.1})

	decisions, report, err := s.Scan(context.Background())

	require.NoError(t, err)
	assert.Empty(t, decisions)
	assert.Zero(t, report.Evaluated)
}

func TestScanner_SignRouting(t *testing.T) {
	ts := time.Now().UTC()
	provider := &fakeProvider{
		rates: map[string]float64{
			"AAA/USDT": 0.001,
			"BBB/USDT": -0.001,
			"CCC/USDT": 0,
		},
		books: map[string]domain.MarketBooks{
			"AAA/USDT": deepBooks("AAA/USDT", ts),
			"BBB/USDT": deepBooks("BBB/USDT", ts),
			"CCC/USDT": deepBooks("CCC/USDT", ts),
		},
		equity: 100000,
	}

	// Negative-rate strategy disabled: only the positive-rate symbol is a
	// candidate, and zero rates are never candidates.
	s := newTestScanner(provider, ScannerConfig{CapitalPerTradeRatio: 0.1})
	decisions, report, err := s.Scan(context.Background())

	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "AAA/USDT", decisions[0].Symbol)
	assert.Equal(t, domain.DirectionShort, decisions[0].Direction)
	assert.Equal(t, 3, report.Symbols)
	assert.Equal(t, 1, report.Evaluated)

	// Enabled: the negative-rate symbol is evaluated long.
	s = newTestScanner(provider, ScannerConfig{
		CapitalPerTradeRatio:       0.1,
		EnableNegativeRateStrategy: true,
	})
	decisions, report, err = s.Scan(context.Background())

	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, "AAA/USDT", decisions[0].Symbol)
	assert.Equal(t, domain.DirectionShort, decisions[0].Direction)
	assert.Equal(t, "BBB/USDT", decisions[1].Symbol)
	assert.Equal(t, domain.DirectionLong, decisions[1].Direction)
	assert.Equal(t, 2, report.Accepted)
}

func TestScanner_CapitalFromEquityRatio(t *testing.T) {
	provider := &fakeProvider{
		rates:  map[string]float64{"BTC/USDT": 0.001},
		books:  map[string]domain.MarketBooks{"BTC/USDT": deepBooks("BTC/USDT", time.Now())},
		equity: 50000,
	}
	s := newTestScanner(provider, ScannerConfig{CapitalPerTradeRatio: 0.2})

	decisions, _, err := s.Scan(context.Background())

	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.InDelta(t, 10000, decisions[0].Capital, 1e-9)
	assert.InDelta(t, 20000, decisions[0].Notional(), 1e-9)
}

func TestScanner_DeterministicOrderAcrossWorkers(t *testing.T) {
	ts := time.Now().UTC()
	rates := make(map[string]float64)
	books := make(map[string]domain.MarketBooks)
	for _, sym := range []string{"EEE/USDT", "AAA/USDT", "CCC/USDT", "BBB/USDT", "DDD/USDT"} {
		rates[sym] = 0.001
		books[sym] = deepBooks(sym, ts)
	}
	provider := &fakeProvider{rates: rates, books: books, equity: 100000}

	for _, workers := range []int{1, 4} {
		s := newTestScanner(provider, ScannerConfig{CapitalPerTradeRatio: 0.1, Workers: workers})
		decisions, _, err := s.Scan(context.Background())

		require.NoError(t, err)
		require.Len(t, decisions, 5)
		for i, want := range []string{"AAA/USDT", "BBB/USDT", "CCC/USDT", "DDD/USDT", "EEE/USDT"} {
			assert.Equal(t, want, decisions[i].Symbol, "workers=%d", workers)
		}
	}
}

func TestScanner_AssignsUniqueIDs(t *testing.T) {
	ts := time.Now().UTC()
	provider := &fakeProvider{
		rates: map[string]float64{"AAA/USDT": 0.001, "BBB/USDT": 0.001},
		books: map[string]domain.MarketBooks{
			"AAA/USDT": deepBooks("AAA/USDT", ts),
			"BBB/USDT": deepBooks("BBB/USDT", ts),
		},
		equity: 100000,
	}
	s := newTestScanner(provider, ScannerConfig{CapitalPerTradeRatio: 0.1})

	decisions, _, err := s.Scan(context.Background())

	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.NotEmpty(t, decisions[0].ID)
	assert.NotEmpty(t, decisions[1].ID)
	assert.NotEqual(t, decisions[0].ID, decisions[1].ID)
}

func TestScanner_ReportCounters(t *testing.T) {
	ts := time.Now().UTC()
	gapBooks := deepBooks("GAP/USDT", ts)
	gapBooks.Swap.Asks = nil
	thinBooks := deepBooks("THIN/USDT", ts)
	thinBooks.Spot.Asks = domain.OrderBookSide{{Price: 100, Quantity: 0.01}}

	provider := &fakeProvider{
		rates: map[string]float64{
			"OK/USDT":   0.001,
			"LOW/USDT":  0.00001, // below return threshold
			"GAP/USDT":  0.001,
			"THIN/USDT": 0.001,
		},
		books: map[string]domain.MarketBooks{
			"OK/USDT":   deepBooks("OK/USDT", ts),
			"LOW/USDT":  deepBooks("LOW/USDT", ts),
			"GAP/USDT":  gapBooks,
			"THIN/USDT": thinBooks,
		},
		equity: 100000,
	}
	s := newTestScanner(provider, ScannerConfig{CapitalPerTradeRatio: 0.1, Workers: 2})

	decisions, report, err := s.Scan(context.Background())

	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "OK/USDT", decisions[0].Symbol)
	assert.Equal(t, 4, report.Evaluated)
	assert.Equal(t, 1, report.Accepted)
	assert.Equal(t, 1, report.BelowThreshold)
	assert.Equal(t, 1, report.SkippedDataGap)
	assert.Equal(t, 1, report.SkippedDepth)
	assert.Zero(t, report.Errors)
	assert.InDelta(t, 20000, report.AcceptedNotional, 1e-9)
}

func TestScanReport_Record(t *testing.T) {
	started := time.Now().UTC()
	finished := started.Add(2 * time.Second)
	report := ScanReport{
		StartedAt:        started,
		FinishedAt:       finished,
		Symbols:          10,
		Evaluated:        8,
		Accepted:         2,
		SkippedDataGap:   1,
		SkippedDepth:     2,
		SkippedSlippage:  1,
		BelowThreshold:   2,
		AcceptedNotional: 40000,
	}

	rec := report.Record()

	assert.Equal(t, started, rec.StartedAt)
	assert.Equal(t, finished, rec.FinishedAt)
	assert.Equal(t, 10, rec.Symbols)
	assert.Equal(t, 2, rec.Accepted)
	assert.InDelta(t, 40000, rec.AcceptedNotional, 1e-9)
}
