package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// FundingRateStore persists the funding-rate history collected each cycle.
type FundingRateStore interface {
	InsertBatch(ctx context.Context, rates []FundingRate) error
	ListBySymbol(ctx context.Context, symbol string, opts ListOpts) ([]FundingRate, error)
	ListBefore(ctx context.Context, before time.Time, limit int) ([]FundingRate, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ScanRecord is the per-cycle audit row: aggregate counters only, no
// decision payloads.
type ScanRecord struct {
	ID               int64
	StartedAt        time.Time
	FinishedAt       time.Time
	Symbols          int
	Evaluated        int
	Accepted         int
	SkippedDataGap   int
	SkippedDepth     int
	SkippedSlippage  int
	BelowThreshold   int
	AcceptedNotional float64
}

// ScanStore persists scan-cycle audit records.
type ScanStore interface {
	Insert(ctx context.Context, rec ScanRecord) error
	ListRecent(ctx context.Context, limit int) ([]ScanRecord, error)
}
