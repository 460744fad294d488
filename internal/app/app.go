// Package app provides the top-level application lifecycle management for
// the funding-rate arbitrage bot. It wires together all dependencies
// (stores, caches, blob storage, the exchange client, the engine, and
// notifications) and starts the goroutines for the configured operating
// mode.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/afashi/funding-rate-arbitrage/internal/config"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, selects the
// operating mode, starts the corresponding goroutines, and blocks until the
// context is cancelled. On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	var modeFn func(context.Context, *Dependencies) error
	switch strings.ToLower(a.cfg.Mode) {
	case "scan":
		modeFn = a.ScanMode
	case "collect":
		modeFn = a.CollectMode
	case "full":
		modeFn = a.FullMode
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}

	if !a.cfg.Server.Enabled {
		return modeFn(ctx, deps)
	}

	// Run the status API alongside the selected mode.
	srv := a.buildServer(deps)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return modeFn(ctx, deps)
	})
	g.Go(func() error {
		if err := deps.WSHub.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil // clean shutdown
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
