package s3blob

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWriter struct {
	path        string
	body        string
	contentType string
	err         error
}

func (w *fakeWriter) Put(ctx context.Context, path string, body io.Reader, contentType string) error {
	if w.err != nil {
		return w.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	w.path = path
	w.body = string(data)
	w.contentType = contentType
	return nil
}

type fakeArchiveStore struct {
	rates      []domain.FundingRate
	listErr    error
	deleted    int64
	deleteErr  error
	deleteDone bool
}

func (s *fakeArchiveStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.FundingRate, error) {
	return s.rates, s.listErr
}

func (s *fakeArchiveStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	s.deleteDone = true
	return s.deleted, s.deleteErr
}

func agedRates() []domain.FundingRate {
	return []domain.FundingRate{
		{Symbol: "BTC-USDT", Rate: 0.0003, Timestamp: time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)},
		{Symbol: "ETH-USDT", Rate: -0.0001, Timestamp: time.Date(2026, 7, 1, 16, 0, 0, 0, time.UTC)},
	}
}

func TestArchiver_UploadsThenPrunes(t *testing.T) {
	writer := &fakeWriter{}
	store := &fakeArchiveStore{rates: agedRates(), deleted: 2}
	a := NewArchiver(writer, store, discardLogger())

	cutoff := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC)
	n, err := a.ArchiveFundingRates(context.Background(), cutoff)
	require.NoError(t, err)

	assert.Equal(t, int64(2), n)
	assert.Equal(t, "archive/funding_rates/2026-08-01.csv", writer.path)
	assert.Equal(t, "text/csv", writer.contentType)
	assert.True(t, store.deleteDone)

	lines := strings.Split(strings.TrimSpace(writer.body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "symbol,rate,funding_at", lines[0])
	assert.Equal(t, "BTC-USDT,0.0003,2026-07-01T08:00:00Z", lines[1])
	assert.Equal(t, "ETH-USDT,-0.0001,2026-07-01T16:00:00Z", lines[2])
}

func TestArchiver_NoRowsNoUpload(t *testing.T) {
	writer := &fakeWriter{}
	a := NewArchiver(writer, &fakeArchiveStore{}, discardLogger())

	n, err := a.ArchiveFundingRates(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, writer.path)
}

func TestArchiver_UploadFailureSkipsDelete(t *testing.T) {
	writer := &fakeWriter{err: errors.New("bucket unreachable")}
	store := &fakeArchiveStore{rates: agedRates()}
	a := NewArchiver(writer, store, discardLogger())

	_, err := a.ArchiveFundingRates(context.Background(), time.Now())
	require.Error(t, err)
	assert.False(t, store.deleteDone)
}

func TestArchiver_ListErrorPropagates(t *testing.T) {
	store := &fakeArchiveStore{listErr: errors.New("db down")}
	a := NewArchiver(&fakeWriter{}, store, discardLogger())

	_, err := a.ArchiveFundingRates(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestArchiver_PruneErrorStillReportsExported(t *testing.T) {
	store := &fakeArchiveStore{rates: agedRates(), deleteErr: errors.New("prune failed")}
	a := NewArchiver(&fakeWriter{}, store, discardLogger())

	n, err := a.ArchiveFundingRates(context.Background(), time.Now())
	require.Error(t, err)
	assert.Equal(t, int64(2), n)
}

func TestArchivePath_PartitionedByUTCDate(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("EST", -5*3600)
	cutoff := time.Date(2026, 8, 1, 23, 30, 0, 0, loc)
	assert.Equal(t, "archive/funding_rates/2026-08-02.csv", archivePath(cutoff))
}
