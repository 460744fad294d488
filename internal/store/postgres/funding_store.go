package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// FundingRateStore implements domain.FundingRateStore using PostgreSQL.
type FundingRateStore struct {
	pool *pgxpool.Pool
}

// NewFundingRateStore creates a new FundingRateStore backed by the given
// connection pool.
func NewFundingRateStore(pool *pgxpool.Pool) *FundingRateStore {
	return &FundingRateStore{pool: pool}
}

func scanFundingRows(rows pgx.Rows) ([]domain.FundingRate, error) {
	var rates []domain.FundingRate
	for rows.Next() {
		var r domain.FundingRate
		if err := rows.Scan(&r.Symbol, &r.Rate, &r.Timestamp); err != nil {
			return nil, err
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// InsertBatch inserts funding rates efficiently using pgx Batch. Duplicate
// rows (same symbol and funding time) are silently skipped via ON CONFLICT
// DO NOTHING, which makes a re-run of the same collection cycle harmless.
func (s *FundingRateStore) InsertBatch(ctx context.Context, rates []domain.FundingRate) error {
	if len(rates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO funding_rates (symbol, rate, funding_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, funding_at) DO NOTHING`

	for _, r := range rates {
		batch.Queue(query, r.Symbol, r.Rate, r.Timestamp)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range rates {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert funding batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListBySymbol returns funding rates for a symbol with pagination and
// optional time filtering, newest first.
func (s *FundingRateStore) ListBySymbol(ctx context.Context, symbol string, opts domain.ListOpts) ([]domain.FundingRate, error) {
	query := `SELECT symbol, rate, funding_at FROM funding_rates WHERE symbol = $1`
	args := []any{symbol}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND funding_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND funding_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY funding_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list funding rates by symbol: %w", err)
	}
	defer rows.Close()

	rates, err := scanFundingRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan funding rates by symbol: %w", err)
	}
	return rates, nil
}

// ListBefore returns funding rates recorded strictly before the given time,
// oldest first, for archiving. A limit of 0 means no limit.
func (s *FundingRateStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.FundingRate, error) {
	query := `SELECT symbol, rate, funding_at FROM funding_rates WHERE funding_at < $1 ORDER BY funding_at ASC`
	args := []any{before}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list funding rates before: %w", err)
	}
	defer rows.Close()
	return scanFundingRows(rows)
}

// DeleteBefore deletes funding rates recorded before the given time and
// returns the number deleted.
func (s *FundingRateStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM funding_rates WHERE funding_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete funding rates before: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.FundingRateStore = (*FundingRateStore)(nil)
