// Package server provides the read-only HTTP and WebSocket API that exposes
// the bot's state: health, live funding rates, scan history, and archived
// exports.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
	"github.com/afashi/funding-rate-arbitrage/internal/server/handler"
	"github.com/afashi/funding-rate-arbitrage/internal/server/middleware"
	"github.com/afashi/funding-rate-arbitrage/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// Per-client request budget, enforced via the shared rate limiter when
	// one is provided. Zero disables API rate limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Nil handlers leave their routes unregistered.
type Handlers struct {
	Health  *handler.HealthHandler
	Funding *handler.FundingHandler
	Scans   *handler.ScanHandler
	Archive *handler.ArchiveHandler
}

// Server is the headless HTTP + WebSocket API for the funding bot.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered. It wires up the
// middleware chain (CORS, logging, auth, rate limiting) and attaches the
// WebSocket hub when one is provided.
func NewServer(cfg Config, handlers Handlers, hub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	mux := http.NewServeMux()

	// Health check.
	if handlers.Health != nil {
		mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	}

	// Funding-rate endpoints.
	if handlers.Funding != nil {
		mux.HandleFunc("GET /api/funding/rates", handlers.Funding.ListRates)
		mux.HandleFunc("GET /api/funding/{symbol}", handlers.Funding.History)
	}

	// Scan-cycle audit endpoints.
	if handlers.Scans != nil {
		mux.HandleFunc("GET /api/scans/recent", handlers.Scans.ListRecent)
	}

	// Archived export endpoints.
	if handlers.Archive != nil {
		mux.HandleFunc("GET /api/archives", handlers.Archive.List)
		mux.HandleFunc("GET /api/archives/{name}", handlers.Archive.Download)
	}

	// WebSocket endpoint.
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	if limiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window <= 0 {
			window = time.Second
		}
		h = middleware.RateLimit(limiter, cfg.RateLimit, window)(h)
	}
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
