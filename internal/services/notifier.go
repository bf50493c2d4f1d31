package services

import (
	"context"

	"vibe-check-backend/internal/models"
)

// Notifier tells partners about each other's activity.
// Implementations must not fail the calling request.
type Notifier interface {
	PartnerJoined(ctx context.Context, rel *models.Relationship, joinerID string)
	PartnerCheckedIn(ctx context.Context, rel *models.Relationship, vibe *models.Vibe)
	RelationshipDeleted(ctx context.Context, rel *models.Relationship, byUserID string)
}

type noopNotifier struct{}

func (noopNotifier) PartnerJoined(context.Context, *models.Relationship, string) {}
func (noopNotifier) PartnerCheckedIn(context.Context, *models.Relationship, *models.Vibe) {}
func (noopNotifier) RelationshipDeleted(context.Context, *models.Relationship, string) {}

// NoopNotifier returns a notifier that does nothing
func NoopNotifier() Notifier {
	return noopNotifier{}
}
