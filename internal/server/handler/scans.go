package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// ScanHandler serves the scan-cycle audit records.
type ScanHandler struct {
	store  domain.ScanStore
	logger *slog.Logger
}

// NewScanHandler creates a ScanHandler.
func NewScanHandler(store domain.ScanStore, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{store: store, logger: logHandler(logger, "scans")}
}

// scanRecordJSON is the wire shape for one scan-cycle record.
type scanRecordJSON struct {
	ID               int64   `json:"id"`
	StartedAt        string  `json:"started_at"`
	FinishedAt       string  `json:"finished_at"`
	Symbols          int     `json:"symbols"`
	Evaluated        int     `json:"evaluated"`
	Accepted         int     `json:"accepted"`
	SkippedDataGap   int     `json:"skipped_data_gap"`
	SkippedDepth     int     `json:"skipped_depth"`
	SkippedSlippage  int     `json:"skipped_slippage"`
	BelowThreshold   int     `json:"below_threshold"`
	AcceptedNotional float64 `json:"accepted_notional"`
}

// ListRecent returns the most recent scan cycles, newest first.
// GET /api/scans/recent
func (h *ScanHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	records, err := h.store.ListRecent(r.Context(), opts.Limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "loading scan records failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load scan records")
		return
	}

	out := make([]scanRecordJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, scanRecordJSON{
			ID:               rec.ID,
			StartedAt:        rec.StartedAt.UTC().Format(time.RFC3339),
			FinishedAt:       rec.FinishedAt.UTC().Format(time.RFC3339),
			Symbols:          rec.Symbols,
			Evaluated:        rec.Evaluated,
			Accepted:         rec.Accepted,
			SkippedDataGap:   rec.SkippedDataGap,
			SkippedDepth:     rec.SkippedDepth,
			SkippedSlippage:  rec.SkippedSlippage,
			BelowThreshold:   rec.BelowThreshold,
			AcceptedNotional: rec.AcceptedNotional,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"scans": out})
}
