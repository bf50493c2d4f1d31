package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"vibe-check-backend/internal/models"

	"github.com/google/uuid"
)

const (
	MinMood       = 1
	MaxMood       = 5
	MaxNoteLength = 140

	// HistoryDays is the size of the history window, today included
	HistoryDays = 7
)

// VibeService implements the daily check-in rules and history
type VibeService struct {
	vibeRepo VibeStore
	relRepo  RelationshipStore
	notifier Notifier
	policy   RelationshipPolicy
	clock    Clock
}

// NewVibeService creates a new vibe service
func NewVibeService(vibeRepo VibeStore, relRepo RelationshipStore, notifier Notifier, clock Clock) *VibeService {
	if notifier == nil {
		notifier = NoopNotifier()
	}
	if clock == nil {
		clock = SystemClock
	}
	return &VibeService{
		vibeRepo: vibeRepo,
		relRepo:  relRepo,
		notifier: notifier,
		clock:    clock,
	}
}

// SubmitVibeRequest represents a daily check-in
type SubmitVibeRequest struct {
	Mood int     `json:"mood"`
	Note *string `json:"note"`
}

// Validate checks mood range and note length. An empty note is cleared.
func (r *SubmitVibeRequest) Validate() error {
	if r.Mood < MinMood || r.Mood > MaxMood {
		return models.NewValidationError("mood", fmt.Sprintf("The mood field must be between %d and %d.", MinMood, MaxMood))
	}
	if r.Note != nil && *r.Note == "" {
		r.Note = nil
	}
	if r.Note != nil && utf8.RuneCountInString(*r.Note) > MaxNoteLength {
		return models.NewValidationError("note", fmt.Sprintf("The note field must not be greater than %d characters.", MaxNoteLength))
	}
	return nil
}

// SubmitMood records today's vibe for userID in their relationship
func (s *VibeService) SubmitMood(ctx context.Context, userID string, req SubmitVibeRequest) (*models.Vibe, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rel, err := s.relationshipOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	today := models.DateOf(now)

	exists, err := s.vibeRepo.ExistsForDate(ctx, userID, rel.ID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to check today's vibe: %w", err)
	}
	if exists {
		return nil, models.ErrAlreadyCheckedIn
	}

	vibe := &models.Vibe{
		ID:             uuid.New().String(),
		UserID:         userID,
		RelationshipID: rel.ID,
		Mood:           req.Mood,
		Note:           req.Note,
		Date:           today,
		CreatedAt:      now,
	}

	// The store's unique constraint settles concurrent submissions
	if err := s.vibeRepo.Create(ctx, vibe); err != nil {
		return nil, err
	}

	s.notifier.PartnerCheckedIn(ctx, rel, vibe)
	return vibe, nil
}

// CheckSubmittedToday reports whether userID already checked in today.
// A user without a relationship has not.
func (s *VibeService) CheckSubmittedToday(ctx context.Context, userID string) (bool, error) {
	rel, err := s.relRepo.GetByUserID(ctx, userID)
	if errors.Is(err, models.ErrRelationshipNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get relationship by user id: %w", err)
	}

	return s.vibeRepo.ExistsForDate(ctx, userID, rel.ID, s.clock.Today())
}

// GetHistory returns the joint history of the last HistoryDays days
func (s *VibeService) GetHistory(ctx context.Context, relationshipID, requesterID string) ([]models.DayRecord, error) {
	rel, err := s.relRepo.GetByID(ctx, relationshipID)
	if err != nil {
		return nil, err
	}

	if err := s.policy.AuthorizeView(requesterID, rel); err != nil {
		return nil, err
	}

	since := s.clock.Today().AddDays(-(HistoryDays - 1))
	vibes, err := s.vibeRepo.ListSince(ctx, rel.ID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list vibes: %w", err)
	}

	return BuildHistory(rel.Users, vibes), nil
}

func (s *VibeService) relationshipOf(ctx context.Context, userID string) (*models.Relationship, error) {
	rel, err := s.relRepo.GetByUserID(ctx, userID)
	if errors.Is(err, models.ErrRelationshipNotFound) {
		return nil, models.ErrNoRelationship
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship by user id: %w", err)
	}
	return rel, nil
}
