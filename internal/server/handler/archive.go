package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// archivePrefix is where the archive job stores pruned funding-rate history.
const archivePrefix = "archive/funding_rates/"

// ArchiveHandler lists and serves archived funding-rate exports from object
// storage.
type ArchiveHandler struct {
	reader domain.BlobReader
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler.
func NewArchiveHandler(reader domain.BlobReader, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{reader: reader, logger: logHandler(logger, "archive")}
}

// List returns all archived funding-rate exports.
// GET /api/archives
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	blobs, err := h.reader.List(r.Context(), archivePrefix)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing archives failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list archives")
		return
	}

	type archiveJSON struct {
		Name         string `json:"name"`
		Size         int64  `json:"size"`
		LastModified string `json:"last_modified"`
	}

	out := make([]archiveJSON, 0, len(blobs))
	for _, b := range blobs {
		out = append(out, archiveJSON{
			Name:         strings.TrimPrefix(b.Path, archivePrefix),
			Size:         b.Size,
			LastModified: b.LastModified.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"archives": out})
}

// Download streams one archived export back to the client.
// GET /api/archives/{name}
func (h *ArchiveHandler) Download(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		writeError(w, http.StatusBadRequest, "invalid archive name")
		return
	}

	body, err := h.reader.Get(r.Context(), archivePrefix+name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "archive not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "fetching archive failed",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to fetch archive")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "streaming archive interrupted",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}
}
