package s3blob

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// FundingArchiveStore provides the store access the archiver needs: a
// time-ranged read of aged rows and a prune of the same range.
type FundingArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.FundingRate, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Archiver implements domain.Archiver by exporting aged funding-rate rows to
// CSV, uploading the file to object storage, and pruning the exported rows.
//
// Rows are deleted only after the upload has succeeded, so a failed upload
// leaves the database untouched and the next run retries the same range.
type Archiver struct {
	writer domain.BlobWriter
	store  FundingArchiveStore
	logger *slog.Logger
}

// NewArchiver creates an Archiver that uploads through the given writer and
// reads from the given store.
func NewArchiver(writer domain.BlobWriter, store FundingArchiveStore, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		store:  store,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveFundingRates exports all funding rates recorded strictly before the
// cutoff to archive/funding_rates/YYYY-MM-DD.csv, then deletes the exported
// rows. It returns the number of rows archived.
func (a *Archiver) ArchiveFundingRates(ctx context.Context, before time.Time) (int64, error) {
	rates, err := a.store.ListBefore(ctx, before, 0)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive funding rates query: %w", err)
	}
	if len(rates) == 0 {
		return 0, nil
	}

	buf, err := marshalCSV(rates)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive funding rates marshal: %w", err)
	}

	path := archivePath(before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "text/csv"); err != nil {
		return 0, fmt.Errorf("s3blob: archive funding rates upload: %w", err)
	}

	deleted, err := a.store.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(rates)), fmt.Errorf("s3blob: archive funding rates prune: %w", err)
	}

	a.logger.Info("funding rates archived",
		slog.String("path", path),
		slog.Int("exported", len(rates)),
		slog.Int64("pruned", deleted),
	)
	return int64(len(rates)), nil
}

// archivePath builds the object key for an archive file, partitioned by the
// cutoff date.
//
//	archive/funding_rates/2026-08-01.csv
func archivePath(before time.Time) string {
	return fmt.Sprintf("archive/funding_rates/%s.csv", before.UTC().Format("2006-01-02"))
}

// marshalCSV renders funding rates as CSV with a header row. Timestamps are
// written as RFC 3339 in UTC.
func marshalCSV(rates []domain.FundingRate) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"symbol", "rate", "funding_at"}); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i, r := range rates {
		rec := []string{
			r.Symbol,
			strconv.FormatFloat(r.Rate, 'f', -1, 64),
			r.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("csv record %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
