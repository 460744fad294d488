package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Runner is a long-running loop that exits when its context is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// Orchestrator manages the pipeline goroutines: the scan loop, the funding
// collector, the live funding feed, and the cold-storage archiver. Any of
// them may be nil, in which case that loop is not started.
type Orchestrator struct {
	scanLoop        *ScanLoop
	collector       *FundingCollector
	feed            Runner
	archiver        *Archiver
	scanInterval    time.Duration
	collectInterval time.Duration
	archiveCron     string
	logger          *slog.Logger
}

// NewOrchestrator creates a new Orchestrator that coordinates the configured
// pipeline sub-systems.
func NewOrchestrator(
	scanLoop *ScanLoop,
	collector *FundingCollector,
	feed Runner,
	archiver *Archiver,
	scanInterval time.Duration,
	collectInterval time.Duration,
	archiveCron string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		scanLoop:        scanLoop,
		collector:       collector,
		feed:            feed,
		archiver:        archiver,
		scanInterval:    scanInterval,
		collectInterval: collectInterval,
		archiveCron:     archiveCron,
		logger:          logger.With(slog.String("component", "orchestrator")),
	}
}

// Run starts the configured loops as concurrent goroutines using an errgroup.
// Each goroutine respects ctx cancellation. If any goroutine returns a
// non-context error, the errgroup cancels the shared context and Run returns
// that error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline orchestrator starting",
		slog.Duration("scan_interval", o.scanInterval),
		slog.Duration("collect_interval", o.collectInterval),
		slog.String("archive_cron", o.archiveCron),
	)

	g, ctx := errgroup.WithContext(ctx)

	if o.scanLoop != nil {
		g.Go(func() error {
			o.logger.Info("starting scan loop")
			err := o.scanLoop.RunLoop(ctx, o.scanInterval)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("scan loop: %w", err)
		})
	}

	if o.collector != nil {
		g.Go(func() error {
			o.logger.Info("starting funding collector loop")
			err := o.collector.RunLoop(ctx, o.collectInterval)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("funding collector: %w", err)
		})
	}

	if o.feed != nil {
		g.Go(func() error {
			o.logger.Info("starting funding feed")
			err := o.feed.Run(ctx)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("funding feed: %w", err)
		})
	}

	if o.archiver != nil {
		g.Go(func() error {
			o.logger.Info("starting archiver cron")
			err := o.archiver.RunCron(ctx, o.archiveCron)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("archiver: %w", err)
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("pipeline orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("pipeline orchestrator stopped cleanly")
	return nil
}
