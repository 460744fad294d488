package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBlobArchiver struct {
	cutoffs  []time.Time
	archived int64
	err      error
}

func (f *fakeBlobArchiver) ArchiveFundingRates(ctx context.Context, before time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, before)
	return f.archived, f.err
}

type fakeLockManager struct {
	err      error
	acquired int
	released int
}

func (f *fakeLockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.acquired++
	return func() { f.released++ }, nil
}

func TestArchiver_Run(t *testing.T) {
	blob := &fakeBlobArchiver{archived: 42}
	locks := &fakeLockManager{}
	a := NewArchiver(blob, locks, 30, testLogger())

	err := a.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, blob.cutoffs, 1)
	wantCutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	assert.WithinDuration(t, wantCutoff, blob.cutoffs[0], 5*time.Second)
	assert.Equal(t, 1, locks.acquired)
	assert.Equal(t, 1, locks.released)
}

func TestArchiver_Run_LockHeldSkips(t *testing.T) {
	blob := &fakeBlobArchiver{}
	locks := &fakeLockManager{err: domain.ErrLockHeld}
	a := NewArchiver(blob, locks, 30, testLogger())

	err := a.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, blob.cutoffs)
}

func TestArchiver_Run_NilLockManager(t *testing.T) {
	blob := &fakeBlobArchiver{}
	a := NewArchiver(blob, nil, 7, testLogger())

	require.NoError(t, a.Run(context.Background()))
	assert.Len(t, blob.cutoffs, 1)
}

func TestArchiver_Run_PropagatesArchiveError(t *testing.T) {
	blob := &fakeBlobArchiver{err: errors.New("s3 unreachable")}
	a := NewArchiver(blob, nil, 7, testLogger())

	err := a.Run(context.Background())

	assert.ErrorContains(t, err, "s3 unreachable")
}

func TestNextCronTime_DailySchedule(t *testing.T) {
	after := time.Date(2026, 8, 30, 12, 30, 45, 0, time.UTC)

	next, err := nextCronTime("0 3 * * *", after)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC), next)
}

func TestNextCronTime_SameDay(t *testing.T) {
	after := time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC)

	next, err := nextCronTime("30 2 * * *", after)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 30, 2, 30, 0, 0, time.UTC), next)
}

func TestNextCronTime_ListField(t *testing.T) {
	after := time.Date(2026, 8, 30, 0, 20, 0, 0, time.UTC)

	// Minute list: the next match after :20 is :30.
	next, err := nextCronTime("0,30 * * * *", after)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 30, 0, 0, time.UTC), next)
}

func TestNextCronTime_DayOfWeek(t *testing.T) {
	// 2026-08-30 is a Sunday; the next Monday (1) at midnight is the 31st.
	after := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	next, err := nextCronTime("0 0 * * 1", after)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), next)
}

func TestParseCron_Invalid(t *testing.T) {
	_, err := parseCron("0 3 * *")
	assert.Error(t, err)

	_, err = parseCron("x 3 * * *")
	assert.Error(t, err)
}
