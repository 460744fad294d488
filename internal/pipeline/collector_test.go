package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

type fakeFetcher struct {
	rates []domain.FundingRate
	err   error
}

func (f *fakeFetcher) FundingRateHistory(ctx context.Context) ([]domain.FundingRate, error) {
	return f.rates, f.err
}

type fakeFundingCache struct {
	set []domain.FundingRate
	err error
}

func (c *fakeFundingCache) SetRates(ctx context.Context, rates []domain.FundingRate) error {
	c.set = append(c.set, rates...)
	return c.err
}

func (c *fakeFundingCache) SetRate(ctx context.Context, rate domain.FundingRate) error {
	c.set = append(c.set, rate)
	return c.err
}

func (c *fakeFundingCache) GetRates(ctx context.Context) (map[string]float64, error) {
	out := make(map[string]float64, len(c.set))
	for _, r := range c.set {
		out[r.Symbol] = r.Rate
	}
	return out, nil
}

type fakeFundingStore struct {
	inserted []domain.FundingRate
	err      error
}

func (s *fakeFundingStore) InsertBatch(ctx context.Context, rates []domain.FundingRate) error {
	s.inserted = append(s.inserted, rates...)
	return s.err
}

func (s *fakeFundingStore) ListBySymbol(ctx context.Context, symbol string, opts domain.ListOpts) ([]domain.FundingRate, error) {
	return nil, nil
}

func (s *fakeFundingStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.FundingRate, error) {
	return nil, nil
}

func (s *fakeFundingStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func sampleRates() []domain.FundingRate {
	now := time.Now().UTC()
	return []domain.FundingRate{
		{Symbol: "BTC-USDT", Rate: 0.0003, Timestamp: now},
		{Symbol: "ETH-USDT", Rate: -0.0001, Timestamp: now},
	}
}

func TestFundingCollector_Run(t *testing.T) {
	fetcher := &fakeFetcher{rates: sampleRates()}
	cache := &fakeFundingCache{}
	store := &fakeFundingStore{}

	c := NewFundingCollector(fetcher, cache, store, testLogger())
	require.NoError(t, c.Run(context.Background()))

	assert.Len(t, cache.set, 2)
	assert.Len(t, store.inserted, 2)
	assert.Equal(t, "BTC-USDT", store.inserted[0].Symbol)
}

func TestFundingCollector_EmptyUniverseSkipsWrites(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache := &fakeFundingCache{}
	store := &fakeFundingStore{}

	c := NewFundingCollector(fetcher, cache, store, testLogger())
	require.NoError(t, c.Run(context.Background()))

	assert.Empty(t, cache.set)
	assert.Empty(t, store.inserted)
}

func TestFundingCollector_FetchErrorPropagates(t *testing.T) {
	fetchErr := errors.New("exchange down")
	c := NewFundingCollector(&fakeFetcher{err: fetchErr}, &fakeFundingCache{}, nil, testLogger())

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)
}

func TestFundingCollector_CacheErrorPropagates(t *testing.T) {
	cache := &fakeFundingCache{err: errors.New("redis gone")}
	c := NewFundingCollector(&fakeFetcher{rates: sampleRates()}, cache, nil, testLogger())

	assert.Error(t, c.Run(context.Background()))
}

func TestFundingCollector_NilStore(t *testing.T) {
	c := NewFundingCollector(&fakeFetcher{rates: sampleRates()}, &fakeFundingCache{}, nil, testLogger())
	assert.NoError(t, c.Run(context.Background()))
}
