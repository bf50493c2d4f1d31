package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"vibe-check-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// CodeLength is the length of relationship invite codes
	CodeLength = 8
	// MaxMembers caps relationship membership
	MaxMembers = 2

	codeChars    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeAttempts = 10
)

// RelationshipService implements the pairing rules
type RelationshipService struct {
	relRepo  RelationshipStore
	cache    RelationshipCache
	notifier Notifier
	policy   RelationshipPolicy
	clock    Clock
}

// NewRelationshipService creates a new relationship service.
// A nil cache or notifier disables that feature.
func NewRelationshipService(relRepo RelationshipStore, cache RelationshipCache, notifier Notifier, clock Clock) *RelationshipService {
	if cache == nil {
		cache = NoopCache()
	}
	if notifier == nil {
		notifier = NoopNotifier()
	}
	if clock == nil {
		clock = SystemClock
	}
	return &RelationshipService{
		relRepo:  relRepo,
		cache:    cache,
		notifier: notifier,
		clock:    clock,
	}
}

// NewRelationship builds an unsaved relationship with a code that is not
// currently in use.
func (s *RelationshipService) NewRelationship(ctx context.Context) (*models.Relationship, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := generateCode(CodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}
		exists, err := s.relRepo.CodeExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to check code existence: %w", err)
		}
		if !exists {
			return &models.Relationship{
				ID:        uuid.New().String(),
				Code:      code,
				CreatedAt: s.clock(),
			}, nil
		}
	}
	return nil, models.ErrCodeGenerationFailed
}

// CreateRelationship creates a relationship with userID as its only member
func (s *RelationshipService) CreateRelationship(ctx context.Context, userID string) (*models.Relationship, error) {
	if err := s.ensureUnpaired(ctx, userID); err != nil {
		return nil, err
	}

	for i := 0; i < codeAttempts; i++ {
		rel, err := s.NewRelationship(ctx)
		if err != nil {
			return nil, err
		}

		err = s.relRepo.CreateWithMember(ctx, rel, userID, s.clock())
		if errors.Is(err, models.ErrCodeTaken) {
			// Another request claimed the code between the check and the insert
			log.Debug().Str("code", rel.Code).Msg("Relationship code collision, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		s.cache.Delete(ctx, userID)
		return s.relRepo.GetByID(ctx, rel.ID)
	}

	return nil, models.ErrCodeGenerationFailed
}

// JoinRelationship adds userID to the relationship identified by code.
//
// Checks run in a fixed order so overlapping failures report consistently:
// full, then paired elsewhere, then already a member.
func (s *RelationshipService) JoinRelationship(ctx context.Context, userID, code string) (*models.Relationship, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	rel, err := s.relRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if len(rel.Users) >= MaxMembers {
		return nil, models.ErrRelationshipFull
	}

	current, err := s.relRepo.GetByUserID(ctx, userID)
	switch {
	case err == nil && current.ID != rel.ID:
		return nil, models.ErrAlreadyPaired
	case err == nil:
		return nil, models.ErrAlreadyMember
	case !errors.Is(err, models.ErrRelationshipNotFound):
		return nil, fmt.Errorf("failed to get relationship by user id: %w", err)
	}

	if err := s.relRepo.AddMember(ctx, rel.ID, userID, s.clock()); err != nil {
		return nil, err
	}

	joined, err := s.relRepo.GetByID(ctx, rel.ID)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, memberIDs(joined)...)
	s.notifier.PartnerJoined(ctx, joined, userID)

	return joined, nil
}

// GetMyRelationship returns the caller's relationship with members loaded
func (s *RelationshipService) GetMyRelationship(ctx context.Context, userID string) (*models.Relationship, error) {
	if rel, ok := s.cache.Get(ctx, userID); ok {
		return rel, nil
	}

	rel, err := s.relRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, userID, rel)
	return rel, nil
}

// DeleteRelationship deletes a relationship and its vibes if userID is a member
func (s *RelationshipService) DeleteRelationship(ctx context.Context, relationshipID, userID string) error {
	rel, err := s.relRepo.GetByID(ctx, relationshipID)
	if err != nil {
		return err
	}

	if err := s.policy.AuthorizeDelete(userID, rel); err != nil {
		return err
	}

	if err := s.relRepo.Delete(ctx, rel.ID); err != nil {
		return err
	}

	s.cache.Delete(ctx, memberIDs(rel)...)
	s.notifier.RelationshipDeleted(ctx, rel, userID)
	return nil
}

func (s *RelationshipService) ensureUnpaired(ctx context.Context, userID string) error {
	_, err := s.relRepo.GetByUserID(ctx, userID)
	if err == nil {
		return models.ErrAlreadyPaired
	}
	if errors.Is(err, models.ErrRelationshipNotFound) {
		return nil
	}
	return fmt.Errorf("failed to check if user has relationship: %w", err)
}

// NormalizeCode validates the shape of an invite code and upper-cases it
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", models.NewValidationError("code", "The code field is required.")
	}
	if len(code) != CodeLength {
		return "", models.NewValidationError("code", "The selected code is invalid.")
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeChars, rune(code[i])) {
			return "", models.NewValidationError("code", "The selected code is invalid.")
		}
	}
	return code, nil
}

// generateCode generates a random code from codeChars
func generateCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeChars)))

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeChars[n.Int64()])
	}
	return b.String(), nil
}

func memberIDs(rel *models.Relationship) []string {
	ids := make([]string, 0, len(rel.Users))
	for _, u := range rel.Users {
		ids = append(ids, u.ID)
	}
	return ids
}
