package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// BookCache implements domain.BookCache using JSON-serialized paired order
// books with a per-key TTL.
//
// Key schema:
//
//	books:{symbol} - string value containing the MarketBooks JSON
type BookCache struct {
	rdb *redis.Client
}

// NewBookCache creates a BookCache backed by the given Client.
func NewBookCache(c *Client) *BookCache {
	return &BookCache{rdb: c.Underlying()}
}

func booksKey(symbol string) string { return "books:" + symbol }

// SetBooks stores the paired spot and swap books for a symbol with the given
// TTL.
func (bc *BookCache) SetBooks(ctx context.Context, books domain.MarketBooks, ttl time.Duration) error {
	data, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("redis: marshal books %s: %w", books.Symbol, err)
	}
	if err := bc.rdb.Set(ctx, booksKey(books.Symbol), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set books %s: %w", books.Symbol, err)
	}
	return nil
}

// GetBooks retrieves the paired books for a symbol.
// It returns domain.ErrNotFound when the key does not exist or has expired.
func (bc *BookCache) GetBooks(ctx context.Context, symbol string) (domain.MarketBooks, error) {
	data, err := bc.rdb.Get(ctx, booksKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.MarketBooks{}, domain.ErrNotFound
		}
		return domain.MarketBooks{}, fmt.Errorf("redis: get books %s: %w", symbol, err)
	}

	var books domain.MarketBooks
	if err := json.Unmarshal(data, &books); err != nil {
		return domain.MarketBooks{}, fmt.Errorf("redis: unmarshal books %s: %w", symbol, err)
	}
	return books, nil
}

// Invalidate removes a symbol's cached books.
func (bc *BookCache) Invalidate(ctx context.Context, symbol string) error {
	if err := bc.rdb.Del(ctx, booksKey(symbol)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate books %s: %w", symbol, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.BookCache = (*BookCache)(nil)
