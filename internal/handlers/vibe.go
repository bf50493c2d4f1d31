package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"vibe-check-backend/internal/middleware"
	"vibe-check-backend/internal/models"
	"vibe-check-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// VibeHandler handles check-in and history requests
type VibeHandler struct {
	vibeService *services.VibeService
}

// NewVibeHandler creates a new vibe handler
func NewVibeHandler(vibeService *services.VibeService) *VibeHandler {
	return &VibeHandler{
		vibeService: vibeService,
	}
}

// CheckResponse reports whether the caller checked in today
type CheckResponse struct {
	Submitted bool `json:"submitted"`
}

// submitVibeBody is the raw POST /api/vibes body. Mood is decoded by
// parseMood so that wrongly typed values fail validation instead of decoding.
type submitVibeBody struct {
	Mood json.RawMessage `json:"mood"`
	Note *string         `json:"note"`
}

// parseMood accepts an integer given as a JSON number (4 or 4.0) or a
// numeric string ("4"). Range checks are left to SubmitVibeRequest.Validate.
func parseMood(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, models.NewValidationError("mood", "The mood field is required.")
	}
	notInteger := models.NewValidationError("mood", "The mood field must be an integer.")

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, notInteger
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, models.NewValidationError("mood", "The mood field is required.")
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, notInteger
		}
		text = n.String()
	}

	if i, err := strconv.Atoi(text); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, notInteger
	}
	return int(f), nil
}

// SubmitVibe handles POST /api/vibes
func (h *VibeHandler) SubmitVibe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var body submitVibeBody
	if !decodeJSON(w, r, &body) {
		return
	}

	mood, err := parseMood(body.Mood)
	if err != nil {
		respondServiceError(w, r, err, "Failed to submit vibe")
		return
	}
	req := services.SubmitVibeRequest{Mood: mood, Note: body.Note}

	vibe, err := h.vibeService.SubmitMood(ctx, userID, req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to submit vibe")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("relationship_id", vibe.RelationshipID).
		Int("mood", vibe.Mood).
		Msg("Vibe submitted")

	respondJSON(w, http.StatusCreated, vibe)
}

// CheckToday handles GET /api/vibes/check
func (h *VibeHandler) CheckToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	submitted, err := h.vibeService.CheckSubmittedToday(ctx, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to check today's vibe")
		return
	}

	respondJSON(w, http.StatusOK, CheckResponse{Submitted: submitted})
}

// GetHistory handles GET /api/vibes/{relationshipID}
func (h *VibeHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	relationshipID, ok := relationshipIDParam(w, r)
	if !ok {
		return
	}

	history, err := h.vibeService.GetHistory(ctx, relationshipID, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to get history")
		return
	}
	if history == nil {
		history = []models.DayRecord{}
	}

	respondJSON(w, http.StatusOK, history)
}
