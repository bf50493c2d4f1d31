package handlers

import (
	"net/http"

	"vibe-check-backend/internal/middleware"
	"vibe-check-backend/internal/models"
	"vibe-check-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles account-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PushTokenRequest represents the request body for registering a device
type PushTokenRequest struct {
	PushToken string `json:"push_token"`
}

// Register handles POST /api/auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.userService.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to register user")
		return
	}

	log.Info().Str("user_id", resp.User.ID).Msg("User registered")

	respondJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Email == "" {
		respondValidationError(w, models.NewValidationError("email", "The email field is required."))
		return
	}
	if req.Password == "" {
		respondValidationError(w, models.NewValidationError("password", "The password field is required."))
		return
	}

	resp, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err, "Failed to log in")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/user
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.userService.GetUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdatePushToken handles PUT /api/user/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, req.PushToken); err != nil {
		respondServiceError(w, r, err, "Failed to update push token")
		return
	}

	log.Info().
		Str("user_id", userID).
		Bool("cleared", req.PushToken == "").
		Msg("Push token updated")

	w.WriteHeader(http.StatusNoContent)
}
