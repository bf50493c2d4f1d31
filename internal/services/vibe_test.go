package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"vibe-check-backend/internal/models"
	"vibe-check-backend/internal/repository/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type vibeFixture struct {
	db       *inmemory.DB
	now      time.Time
	rels     *RelationshipService
	vibes    *VibeService
	notifier *mockNotifier
	rel      *models.Relationship
}

// newVibeFixture pairs alice (first) with bob
func newVibeFixture(t *testing.T) *vibeFixture {
	t.Helper()
	ctx := context.Background()

	f := &vibeFixture{db: inmemory.New(), now: testNow, notifier: &mockNotifier{}}
	clock := Clock(func() time.Time { return f.now })

	f.notifier.On("PartnerJoined", mock.Anything, mock.Anything)
	f.notifier.On("PartnerCheckedIn", mock.Anything, mock.Anything)

	f.rels = NewRelationshipService(f.db.Relationships(), nil, f.notifier, clock)
	f.vibes = NewVibeService(f.db.Vibes(), f.db.Relationships(), f.notifier, clock)

	rel, err := f.rels.CreateRelationship(ctx, "alice")
	require.NoError(t, err)
	f.rel, err = f.rels.JoinRelationship(ctx, "bob", rel.Code)
	require.NoError(t, err)
	return f
}

func note(s string) *string { return &s }

func TestSubmitMood(t *testing.T) {
	ctx := context.Background()
	f := newVibeFixture(t)

	vibe, err := f.vibes.SubmitMood(ctx, "alice", SubmitVibeRequest{Mood: 2, Note: note("tired")})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", vibe.Date.String())
	assert.Equal(t, f.rel.ID, vibe.RelationshipID)
	assert.Equal(t, testNow, vibe.CreatedAt)
	f.notifier.AssertCalled(t, "PartnerCheckedIn", f.rel.ID, "alice")

	_, err = f.vibes.SubmitMood(ctx, "alice", SubmitVibeRequest{Mood: 5})
	assert.ErrorIs(t, err, models.ErrAlreadyCheckedIn)

	stored, err := f.db.Vibes().ListByRelationship(ctx, f.rel.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 2, stored[0].Mood)
	assert.Equal(t, "tired", *stored[0].Note)
}

// staleExistsStore always reports no check-in for today, as a concurrent
// request that checked before the other inserted would see.
type staleExistsStore struct {
	VibeStore
}

func (staleExistsStore) ExistsForDate(context.Context, string, string, models.Date) (bool, error) {
	return false, nil
}

func TestSubmitMoodDuplicateCaughtByStore(t *testing.T) {
	ctx := context.Background()
	f := newVibeFixture(t)
	clock := Clock(func() time.Time { return f.now })
	vibes := NewVibeService(staleExistsStore{f.db.Vibes()}, f.db.Relationships(), f.notifier, clock)

	_, err := vibes.SubmitMood(ctx, "alice", SubmitVibeRequest{Mood: 2})
	require.NoError(t, err)

	_, err = vibes.SubmitMood(ctx, "alice", SubmitVibeRequest{Mood: 5})
	assert.ErrorIs(t, err, models.ErrAlreadyCheckedIn)

	stored, err := f.db.Vibes().ListByRelationship(ctx, f.rel.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 2, stored[0].Mood)
}

func TestSubmitMoodConcurrentSameDay(t *testing.T) {
	ctx := context.Background()
	f := newVibeFixture(t)

	const attempts = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
		others    []error
	)

	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(mood int) {
			defer wg.Done()
			<-start
			_, err := f.vibes.SubmitMood(ctx, "alice", SubmitVibeRequest{Mood: mood})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, models.ErrAlreadyCheckedIn):
				conflicts++
			default:
				others = append(others, err)
			}
		}(i%MaxMood + 1)
	}
	close(start)
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)

	stored, err := f.db.Vibes().ListByRelationship(ctx, f.rel.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSubmitMoodValidation(t *testing.T) {
	ctx := context.Background()
	f := newVibeFixture(t)

	tests := []struct {
		name  string
		req   SubmitVibeRequest
		field string
	}{
		{name: "zero mood", req: SubmitVibeRequest{Mood: 0}, field: "mood"},
		{name: "mood above range", req: SubmitVibeRequest{Mood: 6}, field: "mood"},
		{name: "negative mood", req: SubmitVibeRequest{Mood: -1}, field: "mood"},
		{name: "note too long", req: SubmitVibeRequest{Mood: 3, Note: note(strings.Repeat("a", 141))}, field: "note"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.vibes.SubmitMood(ctx, "alice", tt.req)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	// Validation runs before anything is stored
	submitted, err := f.vibes.CheckSubmittedToday(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, submitted)

	// 140 multi-byte characters fit
	vibe, err := f.vibes.SubmitMood(ctx, "alice", SubmitVibeRequest{Mood: 1, Note: note(strings.Repeat("é", 140))})
	require.NoError(t, err)
	assert.NotNil(t, vibe.Note)

	// An empty note is stored as no note
	vibe, err = f.vibes.SubmitMood(ctx, "bob", SubmitVibeRequest{Mood: 5, Note: note("")})
	require.NoError(t, err)
	assert.Nil(t, vibe.Note)
}

func TestSubmitMoodWithoutRelationship(t *testing.T) {
	f := newVibeFixture(t)

	_, err := f.vibes.SubmitMood(context.Background(), "carol", SubmitVibeRequest{Mood: 3})
	assert.ErrorIs(t, err, models.ErrNoRelationship)
}

func TestCheckSubmittedTodayAcrossDays(t *testing.T) {
	ctx := context.Background()
	f := newVibeFixture(t)

	submitted, err := f.vibes.CheckSubmittedToday(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, submitted)

	f.now = time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	_, err = f.vibes.SubmitMood(ctx, "alice", SubmitVibeRequest{Mood: 4})
	require.NoError(t, err)

	submitted, err = f.vibes.CheckSubmittedToday(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, submitted)

	f.now = time.Date(2024, 3, 11, 0, 1, 0, 0, time.UTC)
	submitted, err = f.vibes.CheckSubmittedToday(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, submitted)

	_, err = f.vibes.SubmitMood(ctx, "alice", SubmitVibeRequest{Mood: 1})
	require.NoError(t, err)
}

func TestGetHistoryScenario(t *testing.T) {
	ctx := context.Background()
	f := newVibeFixture(t)

	_, err := f.vibes.SubmitMood(ctx, "alice", SubmitVibeRequest{Mood: 4})
	require.NoError(t, err)

	history, err := f.vibes.GetHistory(ctx, f.rel.ID, "bob")
	require.NoError(t, err)
	require.Len(t, history, 1)

	day := history[0]
	assert.Equal(t, "2024-03-10", day.Date.String())
	require.Len(t, day.Members, 2)
	assert.Equal(t, "alice", day.Members[0].UserID)
	require.NotNil(t, day.Members[0].Mood)
	assert.Equal(t, 4, day.Members[0].Mood.Mood)
	assert.Equal(t, "bob", day.Members[1].UserID)
	assert.Nil(t, day.Members[1].Mood)

	_, err = f.vibes.GetHistory(ctx, f.rel.ID, "carol")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestGetHistoryWindow(t *testing.T) {
	ctx := context.Background()
	f := newVibeFixture(t)
	today := models.DateOf(testNow)

	// Stored directly to backdate entries
	for _, v := range []*models.Vibe{
		{ID: "v-7", UserID: "alice", Mood: 1, Date: today.AddDays(-7)},
		{ID: "v-6", UserID: "bob", Mood: 2, Date: today.AddDays(-6)},
		{ID: "v-3a", UserID: "alice", Mood: 3, Date: today.AddDays(-3)},
		{ID: "v-3b", UserID: "bob", Mood: 4, Date: today.AddDays(-3)},
		{ID: "v-0", UserID: "bob", Mood: 5, Date: today},
	} {
		v.RelationshipID = f.rel.ID
		require.NoError(t, f.db.Vibes().Create(ctx, v))
	}

	history, err := f.vibes.GetHistory(ctx, f.rel.ID, "alice")
	require.NoError(t, err)

	var dates []string
	for _, day := range history {
		dates = append(dates, day.Date.String())
	}
	// Day -7 is outside the window, days without check-ins are omitted
	assert.Equal(t, []string{"2024-03-10", "2024-03-07", "2024-03-04"}, dates)

	both := history[1]
	alice, _ := both.For("alice")
	bob, _ := both.For("bob")
	assert.Equal(t, 3, alice.Mood.Mood)
	assert.Equal(t, 4, bob.Mood.Mood)

	for _, day := range history {
		assert.Equal(t, "alice", day.Members[0].UserID)
	}
}
