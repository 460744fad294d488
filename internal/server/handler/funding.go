package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// FundingHandler serves funding-rate data: the live per-symbol snapshot from
// the cache and the persisted history from the store.
type FundingHandler struct {
	cache  domain.FundingCache
	store  domain.FundingRateStore
	logger *slog.Logger
}

// NewFundingHandler creates a FundingHandler. store may be nil when history
// persistence is disabled; the history endpoint then returns 404.
func NewFundingHandler(cache domain.FundingCache, store domain.FundingRateStore, logger *slog.Logger) *FundingHandler {
	return &FundingHandler{
		cache:  cache,
		store:  store,
		logger: logHandler(logger, "funding"),
	}
}

// fundingRateJSON is the wire shape for one historical funding-rate row.
type fundingRateJSON struct {
	Symbol    string  `json:"symbol"`
	Rate      float64 `json:"rate"`
	Timestamp string  `json:"timestamp"`
}

// ListRates returns the latest cached funding rate per symbol.
// GET /api/funding/rates
func (h *FundingHandler) ListRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.cache.GetRates(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"rates": map[string]float64{}})
			return
		}
		h.logger.ErrorContext(r.Context(), "loading cached rates failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load funding rates")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rates": rates})
}

// History returns the persisted funding-rate history for one symbol, newest
// first, with optional since/until filtering.
// GET /api/funding/{symbol}
func (h *FundingHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "funding history is not persisted")
		return
	}

	symbol := r.PathValue("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	opts := parseListOpts(r)
	rates, err := h.store.ListBySymbol(r.Context(), symbol, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "loading funding history failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load funding history")
		return
	}

	out := make([]fundingRateJSON, 0, len(rates))
	for _, fr := range rates {
		out = append(out, fundingRateJSON{
			Symbol:    fr.Symbol,
			Rate:      fr.Rate,
			Timestamp: fr.Timestamp.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"rates":  out,
	})
}
