package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"vibe-check-backend/internal/models"
	"vibe-check-backend/internal/repository/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) PartnerJoined(ctx context.Context, rel *models.Relationship, joinerID string) {
	m.Called(rel.ID, joinerID)
}

func (m *mockNotifier) PartnerCheckedIn(ctx context.Context, rel *models.Relationship, vibe *models.Vibe) {
	m.Called(rel.ID, vibe.UserID)
}

func (m *mockNotifier) RelationshipDeleted(ctx context.Context, rel *models.Relationship, byUserID string) {
	m.Called(rel.ID, byUserID)
}

// collidingStore reports the first codes it sees as taken at insert time
type collidingStore struct {
	*inmemory.RelationshipStore
	collisions int
}

func (s *collidingStore) CreateWithMember(ctx context.Context, rel *models.Relationship, userID string, joinedAt time.Time) error {
	if s.collisions > 0 {
		s.collisions--
		return models.ErrCodeTaken
	}
	return s.RelationshipStore.CreateWithMember(ctx, rel, userID, joinedAt)
}

// takenCodes claims every code it is asked about
type takenCodes struct {
	*inmemory.RelationshipStore
}

func (takenCodes) CodeExists(context.Context, string) (bool, error) { return true, nil }

func newRelationshipService(t *testing.T) (*RelationshipService, *inmemory.DB) {
	t.Helper()
	db := inmemory.New()
	return NewRelationshipService(db.Relationships(), nil, nil, FixedClock(testNow)), db
}

func TestCreateRelationship(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRelationshipService(t)

	rel, err := svc.CreateRelationship(ctx, "alice")
	require.NoError(t, err)

	assert.Len(t, rel.Code, CodeLength)
	for _, c := range rel.Code {
		assert.True(t, strings.ContainsRune(codeChars, c), "unexpected code character %q", c)
	}
	assert.Equal(t, testNow, rel.CreatedAt)
	require.Len(t, rel.Users, 1)
	assert.Equal(t, "alice", rel.Users[0].ID)

	_, err = svc.CreateRelationship(ctx, "alice")
	assert.ErrorIs(t, err, models.ErrAlreadyPaired)

	_, err = svc.JoinRelationship(ctx, "alice", rel.Code)
	assert.ErrorIs(t, err, models.ErrAlreadyMember)
}

func TestCreateRelationshipRetriesCodeCollision(t *testing.T) {
	ctx := context.Background()
	db := inmemory.New()
	store := &collidingStore{RelationshipStore: db.Relationships(), collisions: 2}
	svc := NewRelationshipService(store, nil, nil, FixedClock(testNow))

	rel, err := svc.CreateRelationship(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, store.collisions)
	assert.Len(t, rel.Users, 1)
}

func TestNewRelationshipGivesUp(t *testing.T) {
	db := inmemory.New()
	svc := NewRelationshipService(takenCodes{db.Relationships()}, nil, nil, FixedClock(testNow))

	_, err := svc.NewRelationship(context.Background())
	assert.ErrorIs(t, err, models.ErrCodeGenerationFailed)
}

func TestJoinRelationship(t *testing.T) {
	ctx := context.Background()
	db := inmemory.New()
	notifier := &mockNotifier{}
	svc := NewRelationshipService(db.Relationships(), nil, notifier, FixedClock(testNow))

	rel, err := svc.CreateRelationship(ctx, "alice")
	require.NoError(t, err)

	notifier.On("PartnerJoined", rel.ID, "bob").Once()

	joined, err := svc.JoinRelationship(ctx, "bob", strings.ToLower(rel.Code))
	require.NoError(t, err)
	require.Len(t, joined.Users, 2)
	assert.Equal(t, "alice", joined.Users[0].ID)
	assert.Equal(t, "bob", joined.Users[1].ID)
	notifier.AssertExpectations(t)

	// A paired user can neither create nor join
	_, err = svc.CreateRelationship(ctx, "bob")
	assert.ErrorIs(t, err, models.ErrAlreadyPaired)

	for _, user := range []string{"carol", "alice", "bob"} {
		_, err = svc.JoinRelationship(ctx, user, rel.Code)
		assert.ErrorIs(t, err, models.ErrRelationshipFull, user)
	}

	mine, err := svc.GetMyRelationship(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, rel.ID, mine.ID)
	assert.Len(t, mine.Users, 2)
}

func TestJoinRelationshipErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRelationshipService(t)

	target, err := svc.CreateRelationship(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.CreateRelationship(ctx, "dave")
	require.NoError(t, err)

	_, err = svc.JoinRelationship(ctx, "dave", target.Code)
	assert.ErrorIs(t, err, models.ErrAlreadyPaired)

	_, err = svc.JoinRelationship(ctx, "carol", "ZZZZZZZZ")
	assert.ErrorIs(t, err, models.ErrRelationshipNotFound)

	var verr *models.ValidationError
	_, err = svc.JoinRelationship(ctx, "carol", "short")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "code", verr.Field)

	_, err = svc.JoinRelationship(ctx, "carol", "   ")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "The code field is required.", verr.Message)
}

func TestGetMyRelationshipUsesCache(t *testing.T) {
	ctx := context.Background()
	db := inmemory.New()
	cache := inmemory.NewRelationshipCache(time.Hour)
	svc := NewRelationshipService(db.Relationships(), cache, nil, FixedClock(testNow))

	_, err := svc.GetMyRelationship(ctx, "alice")
	assert.ErrorIs(t, err, models.ErrRelationshipNotFound)

	rel, err := svc.CreateRelationship(ctx, "alice")
	require.NoError(t, err)

	mine, err := svc.GetMyRelationship(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine.Users, 1)

	_, err = svc.JoinRelationship(ctx, "bob", rel.Code)
	require.NoError(t, err)

	// Join evicts every member's entry
	mine, err = svc.GetMyRelationship(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine.Users, 2)

	cached, ok := cache.Get(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, rel.ID, cached.ID)
}

func TestDeleteRelationship(t *testing.T) {
	ctx := context.Background()
	db := inmemory.New()
	notifier := &mockNotifier{}
	cache := inmemory.NewRelationshipCache(time.Hour)
	svc := NewRelationshipService(db.Relationships(), cache, notifier, FixedClock(testNow))

	rel, err := svc.CreateRelationship(ctx, "alice")
	require.NoError(t, err)
	notifier.On("PartnerJoined", rel.ID, "bob")
	_, err = svc.JoinRelationship(ctx, "bob", rel.Code)
	require.NoError(t, err)
	_, err = svc.GetMyRelationship(ctx, "bob")
	require.NoError(t, err)

	err = svc.DeleteRelationship(ctx, rel.ID, "carol")
	assert.ErrorIs(t, err, models.ErrForbidden)

	notifier.On("RelationshipDeleted", rel.ID, "alice").Once()
	require.NoError(t, svc.DeleteRelationship(ctx, rel.ID, "alice"))
	notifier.AssertExpectations(t)

	_, err = svc.GetMyRelationship(ctx, "bob")
	assert.ErrorIs(t, err, models.ErrRelationshipNotFound)

	err = svc.DeleteRelationship(ctx, rel.ID, "alice")
	assert.ErrorIs(t, err, models.ErrRelationshipNotFound)
}

func TestNormalizeCode(t *testing.T) {
	code, err := NormalizeCode("  abcd2345 ")
	require.NoError(t, err)
	assert.Equal(t, "ABCD2345", code)

	// O, I, 0 and 1 are never generated
	_, err = NormalizeCode("ABCDEFG0")
	assert.Error(t, err)
}
