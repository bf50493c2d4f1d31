package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"vibe-check-backend/internal/middleware"
	"vibe-check-backend/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// domainErrors maps rule failures to a status and a user-facing message
var domainErrors = []struct {
	err     error
	status  int
	message string
}{
	{models.ErrAlreadyPaired, http.StatusBadRequest, "You are already in a relationship."},
	{models.ErrAlreadyMember, http.StatusBadRequest, "You are already in this relationship."},
	{models.ErrRelationshipFull, http.StatusBadRequest, "This relationship is full."},
	{models.ErrNoRelationship, http.StatusBadRequest, "You are not in a relationship."},
	{models.ErrAlreadyCheckedIn, http.StatusConflict, "You have already submitted your vibe for today."},
	{models.ErrForbidden, http.StatusForbidden, "This action is unauthorized."},
	{models.ErrRelationshipNotFound, http.StatusNotFound, "Relationship not found."},
	{models.ErrUserNotFound, http.StatusNotFound, "User not found."},
	{models.ErrInvalidCredentials, http.StatusUnauthorized, "These credentials do not match our records."},
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Message: message})
}

// respondValidationError sends a 422 with the offending field
func respondValidationError(w http.ResponseWriter, verr *models.ValidationError) {
	respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Message: verr.Message,
		Errors:  map[string][]string{verr.Field: {verr.Message}},
	})
}

// respondServiceError maps an error returned by a service to a response.
// Domain errors are logged at warn, anything else at error.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	userID := middleware.GetUserID(r.Context())

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		log.Debug().Str("user_id", userID).Str("field", verr.Field).Msg(msg)
		respondValidationError(w, verr)
		return
	}

	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			log.Warn().Err(err).Str("user_id", userID).Msg(msg)
			respondError(w, d.message, d.status)
			return
		}
	}

	log.Error().Err(err).Str("user_id", userID).Str("path", r.URL.Path).Msg(msg)
	respondError(w, "Server Error", http.StatusInternalServerError)
}

// decodeJSON reads the request body into dst, replying 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// relationshipIDParam reads the relationshipID URL parameter.
// Anything that is not a UUID cannot name a relationship and gets a 404.
func relationshipIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "relationshipID"))
	if err != nil {
		respondError(w, "Relationship not found.", http.StatusNotFound)
		return "", false
	}
	return id.String(), true
}
