package handlers

import (
	"encoding/json"
	"net/http"

	"vibe-check-backend/internal/middleware"
	"vibe-check-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Native clients send no Origin
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub                 *services.WSHub
	userService         *services.UserService
	relationshipService *services.RelationshipService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	relationshipService *services.RelationshipService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:                 hub,
		userService:         userService,
		relationshipService: relationshipService,
	}
}

// HandleWebSocket handles GET /ws?token=<jwt>
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.userService)
	if err != nil {
		respondError(w, "Unauthenticated.", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(userID, conn)

	partnerID := h.sendRelationshipStatus(r, userID)
	h.hub.NotifyPartnerStatus(partnerID, true)

	defer func() {
		h.hub.Unregister(userID, conn)
		if !h.hub.IsOnline(userID) {
			h.hub.NotifyPartnerStatus(partnerID, false)
		}
	}()

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			return
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Debug().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendToUser(userID, services.WSMessage{Type: services.WSTypeError, Message: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case services.WSTypePing:
			h.sendToUser(userID, services.WSMessage{Type: services.WSTypePong})
		case services.WSTypeRelationshipStatus:
			partnerID = h.sendRelationshipStatus(r, userID)
		default:
			h.sendToUser(userID, services.WSMessage{Type: services.WSTypeError, Message: "Unknown message type"})
		}
	}
}

// sendRelationshipStatus tells userID about their relationship and whether
// their partner is online. It returns the partner's ID, if any.
func (h *WebSocketHandler) sendRelationshipStatus(r *http.Request, userID string) string {
	data := map[string]interface{}{"has_relationship": false}
	partnerID := ""

	rel, err := h.relationshipService.GetMyRelationship(r.Context(), userID)
	if err == nil {
		data["has_relationship"] = true
		data["relationship_id"] = rel.ID
		data["code"] = rel.Code
		if partner, ok := rel.PartnerOf(userID); ok {
			partnerID = partner.ID
			data["partner_id"] = partner.ID
			data["partner_online"] = h.hub.IsOnline(partner.ID)
		}
	}

	h.sendToUser(userID, services.WSMessage{Type: services.WSTypeRelationshipStatus, Data: data})
	return partnerID
}

func (h *WebSocketHandler) sendToUser(userID string, msg services.WSMessage) {
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("type", msg.Type).
			Msg("Failed to send WebSocket message")
	}
}
