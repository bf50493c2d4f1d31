package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"vibe-check-backend/internal/models"
)

const maxMembers = 2

type member struct {
	relationshipID string
	userID         string
	position       int
	joinedAt       time.Time
}

type vibeKey struct {
	userID         string
	relationshipID string
	date           string
}

// DB holds all in-memory state and enforces the same uniqueness rules as
// the PostgreSQL schema.
type DB struct {
	mu            sync.RWMutex
	users         map[string]models.User
	emails        map[string]string
	relationships map[string]models.Relationship
	codes         map[string]string
	members       map[string]member // by user ID
	vibes         map[string]models.Vibe
	vibeKeys      map[vibeKey]string
}

// New creates an empty database
func New() *DB {
	return &DB{
		users:         make(map[string]models.User),
		emails:        make(map[string]string),
		relationships: make(map[string]models.Relationship),
		codes:         make(map[string]string),
		members:       make(map[string]member),
		vibes:         make(map[string]models.Vibe),
		vibeKeys:      make(map[vibeKey]string),
	}
}

// Users returns a user store over db
func (db *DB) Users() *UserStore { return &UserStore{db: db} }

// Relationships returns a relationship store over db
func (db *DB) Relationships() *RelationshipStore { return &RelationshipStore{db: db} }

// Vibes returns a vibe store over db
func (db *DB) Vibes() *VibeStore { return &VibeStore{db: db} }

// UserStore is an in-memory services.UserStore
type UserStore struct {
	db *DB
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, taken := s.db.emails[user.Email]; taken {
		return models.ErrEmailTaken
	}
	s.db.users[user.ID] = *user
	s.db.emails[user.Email] = user.ID
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	user, ok := s.db.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.db.mu.RLock()
	id, ok := s.db.emails[email]
	s.db.mu.RUnlock()
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	user, ok := s.db.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	user.PushToken = pushToken
	s.db.users[userID] = user
	return nil
}

// RelationshipStore is an in-memory services.RelationshipStore
type RelationshipStore struct {
	db *DB
}

func (s *RelationshipStore) CreateWithMember(_ context.Context, rel *models.Relationship, userID string, joinedAt time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, taken := s.db.codes[rel.Code]; taken {
		return models.ErrCodeTaken
	}
	if _, paired := s.db.members[userID]; paired {
		return models.ErrAlreadyPaired
	}

	stored := *rel
	stored.Users = nil
	s.db.relationships[rel.ID] = stored
	s.db.codes[rel.Code] = rel.ID
	s.db.members[userID] = member{relationshipID: rel.ID, userID: userID, position: 1, joinedAt: joinedAt}
	return nil
}

func (s *RelationshipStore) AddMember(_ context.Context, relationshipID, userID string, joinedAt time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.relationships[relationshipID]; !ok {
		return models.ErrRelationshipNotFound
	}
	if existing, paired := s.db.members[userID]; paired {
		if existing.relationshipID == relationshipID {
			return models.ErrAlreadyMember
		}
		return models.ErrAlreadyPaired
	}

	count := len(s.db.membersOf(relationshipID))
	if count >= maxMembers {
		return models.ErrRelationshipFull
	}

	s.db.members[userID] = member{relationshipID: relationshipID, userID: userID, position: count + 1, joinedAt: joinedAt}
	return nil
}

func (s *RelationshipStore) GetByID(_ context.Context, id string) (*models.Relationship, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.db.loadRelationship(id)
}

func (s *RelationshipStore) GetByCode(_ context.Context, code string) (*models.Relationship, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	id, ok := s.db.codes[code]
	if !ok {
		return nil, models.ErrRelationshipNotFound
	}
	return s.db.loadRelationship(id)
}

func (s *RelationshipStore) GetByUserID(_ context.Context, userID string) (*models.Relationship, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	m, ok := s.db.members[userID]
	if !ok {
		return nil, models.ErrRelationshipNotFound
	}
	return s.db.loadRelationship(m.relationshipID)
}

func (s *RelationshipStore) CodeExists(_ context.Context, code string) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	_, ok := s.db.codes[code]
	return ok, nil
}

func (s *RelationshipStore) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	rel, ok := s.db.relationships[id]
	if !ok {
		return models.ErrRelationshipNotFound
	}

	for _, m := range s.db.membersOf(id) {
		delete(s.db.members, m.userID)
	}
	for vid, v := range s.db.vibes {
		if v.RelationshipID == id {
			delete(s.db.vibeKeys, keyOf(&v))
			delete(s.db.vibes, vid)
		}
	}
	delete(s.db.codes, rel.Code)
	delete(s.db.relationships, id)
	return nil
}

// VibeStore is an in-memory services.VibeStore
type VibeStore struct {
	db *DB
}

func (s *VibeStore) Create(_ context.Context, vibe *models.Vibe) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.relationships[vibe.RelationshipID]; !ok {
		return models.ErrRelationshipNotFound
	}
	key := keyOf(vibe)
	if _, dup := s.db.vibeKeys[key]; dup {
		return models.ErrAlreadyCheckedIn
	}
	s.db.vibes[vibe.ID] = *vibe
	s.db.vibeKeys[key] = vibe.ID
	return nil
}

func (s *VibeStore) ExistsForDate(_ context.Context, userID, relationshipID string, date models.Date) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	_, ok := s.db.vibeKeys[vibeKey{userID: userID, relationshipID: relationshipID, date: date.String()}]
	return ok, nil
}

func (s *VibeStore) ListSince(_ context.Context, relationshipID string, since models.Date) ([]*models.Vibe, error) {
	vibes := s.list(relationshipID, func(v models.Vibe) bool { return !v.Date.Before(since.Time) })
	sort.SliceStable(vibes, func(i, j int) bool {
		if !vibes[i].Date.Equal(vibes[j].Date.Time) {
			return vibes[i].Date.After(vibes[j].Date.Time)
		}
		return vibes[i].CreatedAt.Before(vibes[j].CreatedAt)
	})
	return vibes, nil
}

func (s *VibeStore) ListByRelationship(_ context.Context, relationshipID string) ([]*models.Vibe, error) {
	vibes := s.list(relationshipID, func(models.Vibe) bool { return true })
	sort.SliceStable(vibes, func(i, j int) bool {
		if !vibes[i].Date.Equal(vibes[j].Date.Time) {
			return vibes[i].Date.Before(vibes[j].Date.Time)
		}
		return vibes[i].CreatedAt.Before(vibes[j].CreatedAt)
	})
	return vibes, nil
}

func (s *VibeStore) list(relationshipID string, keep func(models.Vibe) bool) []*models.Vibe {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var vibes []*models.Vibe
	for _, v := range s.db.vibes {
		if v.RelationshipID == relationshipID && keep(v) {
			v := v
			vibes = append(vibes, &v)
		}
	}
	return vibes
}

// membersOf returns a relationship's members by position. Caller holds mu.
func (db *DB) membersOf(relationshipID string) []member {
	var ms []member
	for _, m := range db.members {
		if m.relationshipID == relationshipID {
			ms = append(ms, m)
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].position < ms[j].position })
	return ms
}

// loadRelationship copies a relationship with members. Caller holds mu.
func (db *DB) loadRelationship(id string) (*models.Relationship, error) {
	rel, ok := db.relationships[id]
	if !ok {
		return nil, models.ErrRelationshipNotFound
	}

	rel.Users = make([]models.User, 0, maxMembers)
	for _, m := range db.membersOf(id) {
		user, ok := db.users[m.userID]
		if !ok {
			user = models.User{ID: m.userID}
		}
		rel.Users = append(rel.Users, user)
	}
	return &rel, nil
}

func keyOf(v *models.Vibe) vibeKey {
	return vibeKey{userID: v.UserID, relationshipID: v.RelationshipID, date: v.Date.String()}
}
