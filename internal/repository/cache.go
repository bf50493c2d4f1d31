package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vibe-check-backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const relationshipCachePrefix = "relationship:user:"

// RedisRelationshipCache caches relationships by member user ID.
// Cache failures are logged and treated as misses.
type RedisRelationshipCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisRelationshipCache creates a new redis-backed cache
func NewRedisRelationshipCache(rdb *redis.Client, ttl time.Duration) *RedisRelationshipCache {
	return &RedisRelationshipCache{rdb: rdb, ttl: ttl}
}

// ConnectRedis opens a redis client and verifies it
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// Get returns the cached relationship for userID
func (c *RedisRelationshipCache) Get(ctx context.Context, userID string) (*models.Relationship, bool) {
	data, err := c.rdb.Get(ctx, relationshipCachePrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Relationship cache read failed")
		return nil, false
	}

	var rel models.Relationship
	if err := json.Unmarshal(data, &rel); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Relationship cache entry corrupt")
		return nil, false
	}
	return &rel, true
}

// Set stores rel for userID
func (c *RedisRelationshipCache) Set(ctx context.Context, userID string, rel *models.Relationship) {
	if rel == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(rel)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Relationship cache encode failed")
		return
	}
	if err := c.rdb.Set(ctx, relationshipCachePrefix+userID, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Relationship cache write failed")
	}
}

// Delete evicts the entries of every given user
func (c *RedisRelationshipCache) Delete(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, relationshipCachePrefix+id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("user_ids", userIDs).Msg("Relationship cache evict failed")
	}
}
