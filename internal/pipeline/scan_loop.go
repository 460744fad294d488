package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
	"github.com/afashi/funding-rate-arbitrage/internal/engine"
	"github.com/afashi/funding-rate-arbitrage/internal/notify"
)

// ScanLoop runs the opportunity scanner on a fixed interval, persists the
// per-cycle audit record, and pushes accepted decisions to the notifier.
type ScanLoop struct {
	scanner  *engine.Scanner
	scans    ScanRecorder
	notifier *notify.Notifier
	logger   *slog.Logger
}

// ScanRecorder persists scan-cycle audit rows. Only the insert side is
// needed here.
type ScanRecorder interface {
	Insert(ctx context.Context, rec domain.ScanRecord) error
}

// NewScanLoop creates a ScanLoop. The recorder and notifier may be nil when
// auditing or alerting is disabled.
func NewScanLoop(scanner *engine.Scanner, scans ScanRecorder, notifier *notify.Notifier, logger *slog.Logger) *ScanLoop {
	return &ScanLoop{
		scanner:  scanner,
		scans:    scans,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "scan_loop")),
	}
}

// Run executes a single scan cycle.
func (l *ScanLoop) Run(ctx context.Context) error {
	decisions, report, err := l.scanner.Scan(ctx)
	if err != nil {
		if l.notifier != nil {
			if nerr := l.notifier.Notify(ctx, notify.EventScanError, "Scan cycle failed", err.Error()); nerr != nil {
				l.logger.ErrorContext(ctx, "scan failure notification failed",
					slog.String("error", nerr.Error()),
				)
			}
		}
		return fmt.Errorf("scan loop: %w", err)
	}

	if l.scans != nil {
		if err := l.scans.Insert(ctx, report.Record()); err != nil {
			l.logger.ErrorContext(ctx, "persisting scan record failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if l.notifier != nil {
		for _, dec := range decisions {
			title, message := notify.FormatDecision(dec)
			if err := l.notifier.Notify(ctx, notify.EventOpportunity, title, message); err != nil {
				l.logger.ErrorContext(ctx, "decision notification failed",
					slog.String("symbol", dec.Symbol),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	return nil
}

// RunLoop runs the scanner on a repeating interval until the context is
// cancelled. A failed cycle is logged and retried on the next tick.
func (l *ScanLoop) RunLoop(ctx context.Context, interval time.Duration) error {
	// Run immediately on start.
	if err := l.Run(ctx); err != nil {
		l.logger.Error("scan cycle failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("scan loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := l.Run(ctx); err != nil {
				l.logger.Error("scan cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}
