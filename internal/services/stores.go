package services

import (
	"context"
	"time"

	"vibe-check-backend/internal/models"
)

// RelationshipStore persists relationships and their membership.
//
// Implementations enforce at storage level that a user belongs to at most one
// relationship and that a relationship holds at most two members, reporting
// violations as models.ErrAlreadyPaired and models.ErrRelationshipFull.
type RelationshipStore interface {
	// CreateWithMember inserts rel and makes userID its first member.
	// Returns models.ErrCodeTaken when rel.Code collides.
	CreateWithMember(ctx context.Context, rel *models.Relationship, userID string, joinedAt time.Time) error
	GetByID(ctx context.Context, id string) (*models.Relationship, error)
	GetByCode(ctx context.Context, code string) (*models.Relationship, error)
	GetByUserID(ctx context.Context, userID string) (*models.Relationship, error)
	AddMember(ctx context.Context, relationshipID, userID string, joinedAt time.Time) error
	CodeExists(ctx context.Context, code string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// VibeStore persists daily check-ins.
//
// Create returns models.ErrAlreadyCheckedIn when the (user, relationship, date)
// uniqueness constraint is violated.
type VibeStore interface {
	Create(ctx context.Context, vibe *models.Vibe) error
	ExistsForDate(ctx context.Context, userID, relationshipID string, date models.Date) (bool, error)
	ListSince(ctx context.Context, relationshipID string, since models.Date) ([]*models.Vibe, error)
	ListByRelationship(ctx context.Context, relationshipID string) ([]*models.Vibe, error)
}

// UserStore persists accounts
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
}

// RelationshipCache caches a user's relationship by user ID
type RelationshipCache interface {
	Get(ctx context.Context, userID string) (*models.Relationship, bool)
	Set(ctx context.Context, userID string, rel *models.Relationship)
	Delete(ctx context.Context, userIDs ...string)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*models.Relationship, bool) { return nil, false }
func (noopCache) Set(context.Context, string, *models.Relationship) {}
func (noopCache) Delete(context.Context, ...string) {}

// NoopCache returns a cache that never stores anything
func NoopCache() RelationshipCache {
	return noopCache{}
}
