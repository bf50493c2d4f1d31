package models

import "time"

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// User represents a registered user
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PushToken    *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Relationship pairs up to two users behind an invite code.
// Users are ordered by join position, first-joined first.
type Relationship struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	Users     []User    `json:"users"`
}

// HasMember reports whether userID belongs to the relationship
func (r *Relationship) HasMember(userID string) bool {
	for _, u := range r.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// PartnerOf returns the other member, if any
func (r *Relationship) PartnerOf(userID string) (User, bool) {
	for _, u := range r.Users {
		if u.ID != userID {
			return u, true
		}
	}
	return User{}, false
}

// Vibe is one user's daily mood check-in within a relationship
type Vibe struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	RelationshipID string    `json:"relationship_id"`
	Mood           int       `json:"mood"`
	Note           *string   `json:"note"`
	Date           Date      `json:"date"`
	CreatedAt      time.Time `json:"created_at"`
}
