package app

import (
	"github.com/afashi/funding-rate-arbitrage/internal/server"
	"github.com/afashi/funding-rate-arbitrage/internal/server/handler"
)

// buildServer assembles the read-only status API from the wired
// dependencies.
func (a *App) buildServer(deps *Dependencies) *server.Server {
	probes := make(map[string]handler.Pinger)
	if deps.Redis != nil {
		probes["redis"] = deps.Redis
	}
	if deps.Postgres != nil {
		probes["postgres"] = deps.Postgres
	}

	handlers := server.Handlers{
		Health:  handler.NewHealthHandler(probes, a.logger),
		Funding: handler.NewFundingHandler(deps.FundingCache, deps.FundingStore, a.logger),
		Scans:   handler.NewScanHandler(deps.ScanStore, a.logger),
	}
	if deps.BlobReader != nil {
		handlers.Archive = handler.NewArchiveHandler(deps.BlobReader, a.logger)
	}

	return server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, deps.WSHub, deps.RateLimiter, a.logger)
}
