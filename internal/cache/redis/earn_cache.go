package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// EarnCache implements domain.EarnCache using a single Redis hash with a TTL.
// Lending rates change slowly, so the whole table is replaced at once.
//
// Key schema:
//
//	earn:rates - hash mapping currency -> estimated annual lending rate
type EarnCache struct {
	rdb *redis.Client
}

// NewEarnCache creates an EarnCache backed by the given Client.
func NewEarnCache(c *Client) *EarnCache {
	return &EarnCache{rdb: c.Underlying()}
}

const earnRatesKey = "earn:rates"

// SetRates replaces the cached lending-rate table with the given TTL.
func (ec *EarnCache) SetRates(ctx context.Context, rates map[string]float64, ttl time.Duration) error {
	if len(rates) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(rates))
	for ccy, rate := range rates {
		fields[ccy] = strconv.FormatFloat(rate, 'f', -1, 64)
	}

	pipe := ec.rdb.TxPipeline()
	pipe.Del(ctx, earnRatesKey)
	pipe.HSet(ctx, earnRatesKey, fields)
	pipe.Expire(ctx, earnRatesKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set earn rates: %w", err)
	}
	return nil
}

// GetRates retrieves the cached lending-rate table. It returns
// domain.ErrNotFound when the table is absent or expired.
func (ec *EarnCache) GetRates(ctx context.Context) (map[string]float64, error) {
	vals, err := ec.rdb.HGetAll(ctx, earnRatesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get earn rates: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrNotFound
	}

	rates := make(map[string]float64, len(vals))
	for ccy, rateStr := range vals {
		rate, err := strconv.ParseFloat(rateStr, 64)
		if err != nil {
			continue
		}
		rates[ccy] = rate
	}
	return rates, nil
}

// Compile-time interface check.
var _ domain.EarnCache = (*EarnCache)(nil)
