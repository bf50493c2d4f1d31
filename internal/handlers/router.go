package handlers

import (
	"net/http"

	"vibe-check-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router lists the handlers mounted by NewRouter.
// A nil Export or WebSocket handler leaves its route unmounted.
type Router struct {
	Auth          middleware.TokenValidator
	Users         *UserHandler
	Relationships *RelationshipHandler
	Vibes         *VibeHandler
	Export        *ExportHandler
	WebSocket     *WebSocketHandler
}

// NewRouter builds the HTTP routes
func NewRouter(h Router) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", h.Users.Register)
		r.Post("/auth/login", h.Users.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(h.Auth))

			r.Get("/user", h.Users.Me)
			r.Put("/user/push-token", h.Users.UpdatePushToken)

			r.Post("/relationships", h.Relationships.CreateRelationship)
			r.Post("/relationships/join", h.Relationships.JoinRelationship)
			r.Get("/relationships/mine", h.Relationships.GetMyRelationship)
			r.Delete("/relationships/{relationshipID}", h.Relationships.DeleteRelationship)
			if h.Export != nil {
				r.Post("/relationships/mine/export", h.Export.Export)
			}

			r.Post("/vibes", h.Vibes.SubmitVibe)
			r.Get("/vibes/check", h.Vibes.CheckToday)
			r.Get("/vibes/{relationshipID}", h.Vibes.GetHistory)
		})
	})

	if h.WebSocket != nil {
		r.Get("/ws", h.WebSocket.HandleWebSocket)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
