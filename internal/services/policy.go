package services

import "vibe-check-backend/internal/models"

// RelationshipPolicy decides who may act on a relationship
type RelationshipPolicy struct{}

// CanView reports whether userID may read the relationship's history
func (RelationshipPolicy) CanView(userID string, rel *models.Relationship) bool {
	return rel != nil && rel.HasMember(userID)
}

// AuthorizeView returns models.ErrForbidden unless userID may view rel
func (p RelationshipPolicy) AuthorizeView(userID string, rel *models.Relationship) error {
	if !p.CanView(userID, rel) {
		return models.ErrForbidden
	}
	return nil
}

// AuthorizeDelete returns models.ErrForbidden unless userID may delete rel
func (p RelationshipPolicy) AuthorizeDelete(userID string, rel *models.Relationship) error {
	return p.AuthorizeView(userID, rel)
}
