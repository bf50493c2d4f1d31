package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vibe-check-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxMembers = 2

// RelationshipRepository handles database operations for relationships
type RelationshipRepository struct {
	db *pgxpool.Pool
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *pgxpool.Pool) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// CreateWithMember creates a relationship with userID in the first position
func (r *RelationshipRepository) CreateWithMember(ctx context.Context, rel *models.Relationship, userID string, joinedAt time.Time) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO relationships (id, code, created_at)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.Exec(ctx, query, rel.ID, rel.Code, rel.CreatedAt); err != nil {
			return err
		}

		query = `
			INSERT INTO relationship_members (relationship_id, user_id, position, joined_at)
			VALUES ($1, $2, 1, $3)
		`
		_, err := tx.Exec(ctx, query, rel.ID, userID, joinedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create relationship: %w", membershipError(err))
	}
	return nil
}

// AddMember appends userID to the relationship's membership.
// The relationship row is locked so concurrent joins serialize on it.
func (r *RelationshipRepository) AddMember(ctx context.Context, relationshipID, userID string, joinedAt time.Time) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM relationships WHERE id = $1 FOR UPDATE`, relationshipID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrRelationshipNotFound
		}
		if err != nil {
			return err
		}

		var count int
		err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM relationship_members WHERE relationship_id = $1`, relationshipID).Scan(&count)
		if err != nil {
			return err
		}
		if count >= maxMembers {
			return models.ErrRelationshipFull
		}

		query := `
			INSERT INTO relationship_members (relationship_id, user_id, position, joined_at)
			VALUES ($1, $2, $3, $4)
		`
		_, err = tx.Exec(ctx, query, relationshipID, userID, count+1, joinedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to add member: %w", membershipError(err))
	}
	return nil
}

// GetByID retrieves a relationship by ID with members loaded
func (r *RelationshipRepository) GetByID(ctx context.Context, id string) (*models.Relationship, error) {
	query := `
		SELECT id, code, created_at
		FROM relationships
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

// GetByCode retrieves a relationship by invite code with members loaded
func (r *RelationshipRepository) GetByCode(ctx context.Context, code string) (*models.Relationship, error) {
	query := `
		SELECT id, code, created_at
		FROM relationships
		WHERE code = $1
	`
	return r.getOne(ctx, query, code)
}

// GetByUserID retrieves the relationship a user belongs to
func (r *RelationshipRepository) GetByUserID(ctx context.Context, userID string) (*models.Relationship, error) {
	query := `
		SELECT r.id, r.code, r.created_at
		FROM relationships r
		JOIN relationship_members m ON m.relationship_id = r.id
		WHERE m.user_id = $1
		LIMIT 1
	`
	return r.getOne(ctx, query, userID)
}

// CodeExists checks if a code is already in use
func (r *RelationshipRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM relationships WHERE code = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return exists, nil
}

// Delete deletes a relationship; members and vibes cascade
func (r *RelationshipRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM relationships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrRelationshipNotFound
	}
	return nil
}

func (r *RelationshipRepository) getOne(ctx context.Context, query string, arg string) (*models.Relationship, error) {
	var rel models.Relationship
	err := r.db.QueryRow(ctx, query, arg).Scan(&rel.ID, &rel.Code, &rel.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRelationshipNotFound
		}
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}

	users, err := listMembers(ctx, r.db, rel.ID)
	if err != nil {
		return nil, err
	}
	rel.Users = users
	return &rel, nil
}

func listMembers(ctx context.Context, q querier, relationshipID string) ([]models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.created_at
		FROM relationship_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.relationship_id = $1
		ORDER BY m.position
	`
	rows, err := q.Query(ctx, query, relationshipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0, maxMembers)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return users, nil
}

// membershipError maps constraint violations to domain errors
func membershipError(err error) error {
	constraint, ok := uniqueConstraint(err)
	if !ok {
		return err
	}
	switch constraint {
	case constraintRelationshipCode:
		return models.ErrCodeTaken
	case constraintMemberUser:
		return models.ErrAlreadyPaired
	case constraintMemberPrimary:
		return models.ErrAlreadyMember
	case constraintMemberPosition:
		return models.ErrRelationshipFull
	}
	return err
}
