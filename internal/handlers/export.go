package handlers

import (
	"net/http"

	"vibe-check-backend/internal/middleware"
	"vibe-check-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ExportHandler handles history export requests
type ExportHandler struct {
	exportService *services.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// Export handles POST /api/relationships/mine/export
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	resp, err := h.exportService.Export(ctx, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to export vibes")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("key", resp.Key).
		Msg("Vibes exported")

	respondJSON(w, http.StatusOK, resp)
}
