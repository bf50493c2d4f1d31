package repository

import (
	"context"
	"fmt"
	"time"

	"vibe-check-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VibeRepository handles database operations for vibes
type VibeRepository struct {
	db *pgxpool.Pool
}

// NewVibeRepository creates a new vibe repository
func NewVibeRepository(db *pgxpool.Pool) *VibeRepository {
	return &VibeRepository{db: db}
}

// Create inserts a vibe. A second vibe for the same user, relationship and
// date is rejected with models.ErrAlreadyCheckedIn.
func (r *VibeRepository) Create(ctx context.Context, vibe *models.Vibe) error {
	query := `
		INSERT INTO vibes (id, relationship_id, user_id, mood, note, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		vibe.ID, vibe.RelationshipID, vibe.UserID, vibe.Mood, vibe.Note, vibe.Date.Time, vibe.CreatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == constraintVibeUserDayUnique {
			return models.ErrAlreadyCheckedIn
		}
		return fmt.Errorf("failed to create vibe: %w", err)
	}
	return nil
}

// ExistsForDate checks whether a user checked in on date within a relationship
func (r *VibeRepository) ExistsForDate(ctx context.Context, userID, relationshipID string, date models.Date) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM vibes
			WHERE user_id = $1 AND relationship_id = $2 AND date = $3
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, relationshipID, date.Time).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check vibe existence: %w", err)
	}
	return exists, nil
}

// ListSince retrieves a relationship's vibes on or after since, newest first
func (r *VibeRepository) ListSince(ctx context.Context, relationshipID string, since models.Date) ([]*models.Vibe, error) {
	query := `
		SELECT id, relationship_id, user_id, mood, note, date, created_at
		FROM vibes
		WHERE relationship_id = $1 AND date >= $2
		ORDER BY date DESC, created_at ASC
	`
	rows, err := r.db.Query(ctx, query, relationshipID, since.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to get vibes: %w", err)
	}
	return scanVibes(rows)
}

// ListByRelationship retrieves every vibe of a relationship, oldest first
func (r *VibeRepository) ListByRelationship(ctx context.Context, relationshipID string) ([]*models.Vibe, error) {
	query := `
		SELECT id, relationship_id, user_id, mood, note, date, created_at
		FROM vibes
		WHERE relationship_id = $1
		ORDER BY date ASC, created_at ASC
	`
	rows, err := r.db.Query(ctx, query, relationshipID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vibes: %w", err)
	}
	return scanVibes(rows)
}

func scanVibes(rows pgx.Rows) ([]*models.Vibe, error) {
	defer rows.Close()

	var vibes []*models.Vibe
	for rows.Next() {
		var (
			vibe models.Vibe
			date time.Time
		)
		err := rows.Scan(
			&vibe.ID, &vibe.RelationshipID, &vibe.UserID, &vibe.Mood,
			&vibe.Note, &date, &vibe.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vibe: %w", err)
		}
		vibe.Date = models.DateOf(date)
		vibes = append(vibes, &vibe)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vibes: %w", err)
	}
	return vibes, nil
}
