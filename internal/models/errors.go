package models

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyPaired        = errors.New("user is already in a relationship")
	ErrAlreadyMember        = errors.New("user is already a member of this relationship")
	ErrRelationshipFull     = errors.New("relationship is full")
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrNoRelationship       = errors.New("user is not in a relationship")
	ErrAlreadyCheckedIn     = errors.New("vibe already submitted today")
	ErrForbidden            = errors.New("user is not a member of this relationship")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already taken")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrCodeTaken            = errors.New("relationship code already taken")
	ErrCodeGenerationFailed = errors.New("failed to generate unique relationship code")
)

// ValidationError reports invalid input for a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
