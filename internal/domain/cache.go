package domain

import (
	"context"
	"time"
)

// FundingCache provides fast access to the latest funding-rate universe.
type FundingCache interface {
	SetRates(ctx context.Context, rates []FundingRate) error
	SetRate(ctx context.Context, rate FundingRate) error
	GetRates(ctx context.Context) (map[string]float64, error)
}

// BookCache stores recent order-book snapshots per symbol with a TTL so a
// scan cycle does not refetch books it just pulled.
type BookCache interface {
	SetBooks(ctx context.Context, books MarketBooks, ttl time.Duration) error
	GetBooks(ctx context.Context, symbol string) (MarketBooks, error)
	Invalidate(ctx context.Context, symbol string) error
}

// EarnCache stores the lending-rate table.
type EarnCache interface {
	SetRates(ctx context.Context, rates map[string]float64, ttl time.Duration) error
	GetRates(ctx context.Context) (map[string]float64, error)
}

// RateLimiter provides distributed rate limiting for exchange REST calls.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}

// LockManager provides distributed locks so singleton jobs such as the
// archiver run on at most one instance.
type LockManager interface {
	// Acquire obtains the lock and returns an unlock function, or
	// ErrLockHeld when another party holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
