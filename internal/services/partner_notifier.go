package services

import (
	"context"
	"fmt"

	"vibe-check-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// PartnerNotifier delivers partner events over the WebSocket hub and falls
// back to push notifications for partners who are offline.
type PartnerNotifier struct {
	hub      *WSHub
	pusher   Pusher
	userRepo UserStore
}

// NewPartnerNotifier creates a notifier. A nil pusher disables push.
func NewPartnerNotifier(hub *WSHub, pusher Pusher, userRepo UserStore) *PartnerNotifier {
	return &PartnerNotifier{
		hub:      hub,
		pusher:   pusher,
		userRepo: userRepo,
	}
}

// PartnerJoined tells the existing member that their partner joined
func (n *PartnerNotifier) PartnerJoined(ctx context.Context, rel *models.Relationship, joinerID string) {
	partner, ok := rel.PartnerOf(joinerID)
	if !ok {
		return
	}

	joinerName := ""
	for _, u := range rel.Users {
		if u.ID == joinerID {
			joinerName = u.Name
		}
	}

	n.deliver(ctx, partner.ID, WSMessage{
		Type: WSTypePartnerJoined,
		Data: map[string]interface{}{
			"relationship_id": rel.ID,
			"partner_id":      joinerID,
			"partner_name":    joinerName,
		},
	}, PushAlert{
		Title: "You're paired!",
		Body:  fmt.Sprintf("%s joined your relationship.", displayName(joinerName)),
		Kind:  WSTypePartnerJoined,
		Data:  map[string]string{"relationship_id": rel.ID},
	})
}

// PartnerCheckedIn tells the partner that a vibe was shared
func (n *PartnerNotifier) PartnerCheckedIn(ctx context.Context, rel *models.Relationship, vibe *models.Vibe) {
	partner, ok := rel.PartnerOf(vibe.UserID)
	if !ok {
		return
	}

	n.deliver(ctx, partner.ID, WSMessage{
		Type: WSTypePartnerCheckedIn,
		Data: map[string]interface{}{
			"relationship_id": rel.ID,
			"user_id":         vibe.UserID,
			"date":            vibe.Date,
			"mood":            vibe.Mood,
		},
	}, PushAlert{
		Title: "New vibe",
		Body:  "Your partner just checked in. How are you feeling today?",
		Kind:  WSTypePartnerCheckedIn,
		Data:  map[string]string{"relationship_id": rel.ID, "date": vibe.Date.String()},
	})
}

// RelationshipDeleted tells the other member that the relationship is gone
func (n *PartnerNotifier) RelationshipDeleted(ctx context.Context, rel *models.Relationship, byUserID string) {
	partner, ok := rel.PartnerOf(byUserID)
	if !ok {
		return
	}

	n.deliver(ctx, partner.ID, WSMessage{
		Type: WSTypeRelationshipDeleted,
		Data: map[string]interface{}{"relationship_id": rel.ID},
	}, PushAlert{
		Title: "Relationship ended",
		Body:  "Your partner deleted your shared relationship.",
		Kind:  WSTypeRelationshipDeleted,
		Data:  map[string]string{"relationship_id": rel.ID},
	})
}

func (n *PartnerNotifier) deliver(ctx context.Context, userID string, msg WSMessage, alert PushAlert) {
	if n.hub != nil && n.hub.IsOnline(userID) {
		err := n.hub.SendToUser(userID, msg)
		if err == nil {
			return
		}
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("type", msg.Type).
			Msg("Failed to send WebSocket notification")
	}

	if n.pusher == nil || n.userRepo == nil {
		return
	}

	user, err := n.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for push")
		return
	}
	if user.PushToken == nil {
		return
	}

	if err := n.pusher.Push(ctx, *user.PushToken, alert); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("type", alert.Kind).
			Msg("Failed to send push notification")
	}
}

func displayName(name string) string {
	if name == "" {
		return "Your partner"
	}
	return name
}
