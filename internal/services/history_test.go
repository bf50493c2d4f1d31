package services

import (
	"testing"

	"vibe-check-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHistory(t *testing.T) {
	members := []models.User{{ID: "a"}, {ID: "b"}}
	d1 := models.DateOf(testNow)
	d2 := d1.AddDays(-1)

	vibes := []*models.Vibe{
		{UserID: "b", Mood: 5, Date: d2},
		{UserID: "a", Mood: 3, Note: note("ok"), Date: d1},
		{UserID: "stranger", Mood: 1, Date: d1.AddDays(-2)},
		{UserID: "a", Mood: 1, Date: d1},
	}

	records := BuildHistory(members, vibes)
	require.Len(t, records, 2)

	assert.Equal(t, d1, records[0].Date)
	require.Len(t, records[0].Members, 2)
	assert.Equal(t, "a", records[0].Members[0].UserID)
	require.NotNil(t, records[0].Members[0].Mood)
	assert.Equal(t, 3, records[0].Members[0].Mood.Mood, "first vibe of the day wins")
	assert.Equal(t, "ok", *records[0].Members[0].Mood.Note)
	assert.Nil(t, records[0].Members[1].Mood)

	assert.Equal(t, d2, records[1].Date)
	assert.Nil(t, records[1].Members[0].Mood)
	assert.Equal(t, 5, records[1].Members[1].Mood.Mood)
}

func TestBuildHistoryEmpty(t *testing.T) {
	records := BuildHistory([]models.User{{ID: "a"}}, nil)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestBuildHistorySingleMember(t *testing.T) {
	d := models.DateOf(testNow)
	records := BuildHistory([]models.User{{ID: "a"}}, []*models.Vibe{{UserID: "a", Mood: 2, Date: d}})

	require.Len(t, records, 1)
	require.Len(t, records[0].Members, 1)
	assert.Equal(t, 2, records[0].Members[0].Mood.Mood)
}
