package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"vibe-check-backend/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRelationshipCacheUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	cache := NewRedisRelationshipCache(rdb, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "u1", &models.Relationship{ID: "r1"})
	_, ok := cache.Get(ctx, "u1")
	assert.False(t, ok)
	cache.Delete(ctx, "u1")
}

func TestRedisRelationshipCache(t *testing.T) {
	addr := os.Getenv("VIBECHECK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VIBECHECK_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	rdb, err := ConnectRedis(ctx, addr, "", 0)
	require.NoError(t, err)
	defer rdb.Close()

	cache := NewRedisRelationshipCache(rdb, time.Minute)
	alice, bob := uuid.NewString(), uuid.NewString()
	rel := &models.Relationship{
		ID:        uuid.NewString(),
		Code:      "ABCDEFGH",
		CreatedAt: time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC),
		Users:     []models.User{{ID: alice, Name: "Alice"}, {ID: bob, Name: "Bob"}},
	}

	_, ok := cache.Get(ctx, alice)
	assert.False(t, ok)

	cache.Set(ctx, alice, rel)
	cache.Set(ctx, bob, rel)

	got, ok := cache.Get(ctx, alice)
	require.True(t, ok)
	assert.Equal(t, rel.ID, got.ID)
	assert.Equal(t, rel.Code, got.Code)
	require.Len(t, got.Users, 2)
	assert.Equal(t, alice, got.Users[0].ID)
	assert.Equal(t, bob, got.Users[1].ID)

	cache.Delete(ctx, alice, bob)
	_, ok = cache.Get(ctx, alice)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, bob)
	assert.False(t, ok)
}
