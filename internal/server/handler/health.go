package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger checks liveness of one backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint. Each named Pinger is probed
// on every request; the endpoint degrades to 503 when any probe fails.
type HealthHandler struct {
	probes map[string]Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. probes maps a component name
// ("redis", "postgres") to its liveness check; a nil or empty map yields an
// unconditional ok.
func NewHealthHandler(probes map[string]Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{probes: probes, logger: logHandler(logger, "health")}
}

// HealthCheck responds with the overall status and a per-component breakdown.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	components := make(map[string]string, len(h.probes))
	for name, p := range h.probes {
		if err := p.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "health probe failed",
				slog.String("component", name),
				slog.String("error", err.Error()),
			)
			components[name] = err.Error()
			status = "degraded"
		} else {
			components[name] = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
