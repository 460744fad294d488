package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// FundingCache implements domain.FundingCache using Redis hashes.
//
// Key schema:
//
//	funding:rates - hash mapping symbol -> funding rate
//	funding:ts    - hash mapping symbol -> Unix nanosecond timestamp
type FundingCache struct {
	rdb *redis.Client
}

// NewFundingCache creates a FundingCache backed by the given Client.
func NewFundingCache(c *Client) *FundingCache {
	return &FundingCache{rdb: c.Underlying()}
}

const (
	fundingRatesKey = "funding:rates"
	fundingTSKey    = "funding:ts"
)

// SetRates replaces the cached funding-rate universe in one transaction.
func (fc *FundingCache) SetRates(ctx context.Context, rates []domain.FundingRate) error {
	if len(rates) == 0 {
		return nil
	}

	rateFields := make(map[string]interface{}, len(rates))
	tsFields := make(map[string]interface{}, len(rates))
	for _, r := range rates {
		rateFields[r.Symbol] = strconv.FormatFloat(r.Rate, 'f', -1, 64)
		tsFields[r.Symbol] = strconv.FormatInt(r.Timestamp.UnixNano(), 10)
	}

	pipe := fc.rdb.TxPipeline()
	pipe.HSet(ctx, fundingRatesKey, rateFields)
	pipe.HSet(ctx, fundingTSKey, tsFields)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set funding rates: %w", err)
	}
	return nil
}

// SetRate updates a single symbol's funding rate, keeping the rest of the
// universe intact. Stale pushes are ignored by comparing timestamps.
func (fc *FundingCache) SetRate(ctx context.Context, rate domain.FundingRate) error {
	tsStr, err := fc.rdb.HGet(ctx, fundingTSKey, rate.Symbol).Result()
	if err == nil {
		if prev, perr := strconv.ParseInt(tsStr, 10, 64); perr == nil {
			if time.Unix(0, prev).After(rate.Timestamp) {
				return nil
			}
		}
	}

	pipe := fc.rdb.TxPipeline()
	pipe.HSet(ctx, fundingRatesKey, rate.Symbol, strconv.FormatFloat(rate.Rate, 'f', -1, 64))
	pipe.HSet(ctx, fundingTSKey, rate.Symbol, strconv.FormatInt(rate.Timestamp.UnixNano(), 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set funding rate %s: %w", rate.Symbol, err)
	}
	return nil
}

// GetRates retrieves the full cached universe. It returns domain.ErrNotFound
// when the cache is empty.
func (fc *FundingCache) GetRates(ctx context.Context) (map[string]float64, error) {
	vals, err := fc.rdb.HGetAll(ctx, fundingRatesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get funding rates: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrNotFound
	}

	rates := make(map[string]float64, len(vals))
	for symbol, rateStr := range vals {
		rate, err := strconv.ParseFloat(rateStr, 64)
		if err != nil {
			continue
		}
		rates[symbol] = rate
	}
	return rates, nil
}

// Compile-time interface check.
var _ domain.FundingCache = (*FundingCache)(nil)
