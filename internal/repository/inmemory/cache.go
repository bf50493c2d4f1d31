package inmemory

import (
	"context"
	"sync"
	"time"

	"vibe-check-backend/internal/models"
)

// RelationshipCache is a process-local services.RelationshipCache used when
// redis is not configured.
type RelationshipCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]relationshipItem
}

type relationshipItem struct {
	value     models.Relationship
	expiresAt time.Time
}

func NewRelationshipCache(ttl time.Duration) *RelationshipCache {
	return &RelationshipCache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]relationshipItem),
	}
}

func (c *RelationshipCache) Get(_ context.Context, userID string) (*models.Relationship, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[userID]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, userID)
		}
		c.mu.Unlock()
		return nil, false
	}

	value := item.value
	value.Users = append([]models.User(nil), item.value.Users...)
	return &value, true
}

func (c *RelationshipCache) Set(ctx context.Context, userID string, rel *models.Relationship) {
	if rel == nil || c.ttl <= 0 {
		c.Delete(ctx, userID)
		return
	}

	value := *rel
	value.Users = append([]models.User(nil), rel.Users...)

	c.mu.Lock()
	c.items[userID] = relationshipItem{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

func (c *RelationshipCache) Delete(_ context.Context, userIDs ...string) {
	c.mu.Lock()
	for _, id := range userIDs {
		delete(c.items, id)
	}
	c.mu.Unlock()
}

func (c *RelationshipCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]relationshipItem)
	c.mu.Unlock()
}
