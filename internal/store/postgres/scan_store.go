package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// ScanStore implements domain.ScanStore using PostgreSQL.
type ScanStore struct {
	pool *pgxpool.Pool
}

// NewScanStore creates a new ScanStore backed by the given connection pool.
func NewScanStore(pool *pgxpool.Pool) *ScanStore {
	return &ScanStore{pool: pool}
}

// Insert persists a scan-cycle audit record.
func (s *ScanStore) Insert(ctx context.Context, rec domain.ScanRecord) error {
	const query = `
		INSERT INTO scan_records (
			started_at, finished_at, symbols, evaluated, accepted,
			skipped_data_gap, skipped_depth, skipped_slippage,
			below_threshold, accepted_notional
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.pool.Exec(ctx, query,
		rec.StartedAt, rec.FinishedAt, rec.Symbols, rec.Evaluated,
		rec.Accepted, rec.SkippedDataGap, rec.SkippedDepth,
		rec.SkippedSlippage, rec.BelowThreshold, rec.AcceptedNotional,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert scan record: %w", err)
	}
	return nil
}

// ListRecent returns the most recent scan records, newest first.
func (s *ScanStore) ListRecent(ctx context.Context, limit int) ([]domain.ScanRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, started_at, finished_at, symbols, evaluated, accepted,
			skipped_data_gap, skipped_depth, skipped_slippage,
			below_threshold, accepted_notional
		FROM scan_records
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list scan records: %w", err)
	}
	defer rows.Close()

	var recs []domain.ScanRecord
	for rows.Next() {
		var r domain.ScanRecord
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.FinishedAt, &r.Symbols, &r.Evaluated,
			&r.Accepted, &r.SkippedDataGap, &r.SkippedDepth,
			&r.SkippedSlippage, &r.BelowThreshold, &r.AcceptedNotional,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan scan record: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list scan records: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.ScanStore = (*ScanStore)(nil)
