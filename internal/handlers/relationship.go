package handlers

import (
	"errors"
	"net/http"

	"vibe-check-backend/internal/middleware"
	"vibe-check-backend/internal/models"
	"vibe-check-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// RelationshipHandler handles relationship-related HTTP requests
type RelationshipHandler struct {
	relationshipService *services.RelationshipService
}

// NewRelationshipHandler creates a new relationship handler
func NewRelationshipHandler(relationshipService *services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{
		relationshipService: relationshipService,
	}
}

// JoinRelationshipRequest represents the request body for joining by code
type JoinRelationshipRequest struct {
	Code string `json:"code"`
}

// CreateRelationship handles POST /api/relationships
func (h *RelationshipHandler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	rel, err := h.relationshipService.CreateRelationship(ctx, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create relationship")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("relationship_id", rel.ID).
		Msg("Relationship created")

	respondJSON(w, http.StatusCreated, rel)
}

// JoinRelationship handles POST /api/relationships/join
func (h *RelationshipHandler) JoinRelationship(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req JoinRelationshipRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rel, err := h.relationshipService.JoinRelationship(ctx, userID, req.Code)
	if errors.Is(err, models.ErrRelationshipNotFound) {
		// An unknown code is an input error, not a missing resource
		respondValidationError(w, models.NewValidationError("code", "The selected code is invalid."))
		return
	}
	if err != nil {
		respondServiceError(w, r, err, "Failed to join relationship")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("relationship_id", rel.ID).
		Msg("Relationship joined")

	respondJSON(w, http.StatusOK, rel)
}

// GetMyRelationship handles GET /api/relationships/mine
func (h *RelationshipHandler) GetMyRelationship(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	rel, err := h.relationshipService.GetMyRelationship(ctx, userID)
	if errors.Is(err, models.ErrRelationshipNotFound) {
		respondError(w, "You are not in a relationship.", http.StatusNotFound)
		return
	}
	if err != nil {
		respondServiceError(w, r, err, "Failed to get relationship")
		return
	}

	respondJSON(w, http.StatusOK, rel)
}

// DeleteRelationship handles DELETE /api/relationships/{relationshipID}
func (h *RelationshipHandler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	relationshipID, ok := relationshipIDParam(w, r)
	if !ok {
		return
	}

	if err := h.relationshipService.DeleteRelationship(ctx, relationshipID, userID); err != nil {
		respondServiceError(w, r, err, "Failed to delete relationship")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("relationship_id", relationshipID).
		Msg("Relationship deleted")

	w.WriteHeader(http.StatusNoContent)
}
