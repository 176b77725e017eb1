package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend_boilerplate/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const userKeyPrefix = "usercache:"

// UserCache is a read-through JSON cache for user lookups by ID.
type UserCache struct {
	rdb Commands
	ttl time.Duration
}

func NewUserCache(rdb Commands, ttl time.Duration) *UserCache {
	return &UserCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached user, or (nil, nil) on a cache miss.
// A corrupt entry counts as a miss and is dropped.
func (c *UserCache) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	value, err := c.rdb.Get(ctx, userKeyPrefix+id.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached user %s: %w", id, err)
	}
	var u models.User
	if err := json.Unmarshal([]byte(value), &u); err != nil {
		_ = c.rdb.Del(ctx, userKeyPrefix+id.String()).Err()
		return nil, nil
	}
	return &u, nil
}

// Set stores the user for the configured TTL.
func (c *UserCache) Set(ctx context.Context, u *models.User) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user %s for cache: %w", u.ID, err)
	}
	if err := c.rdb.SetEX(ctx, userKeyPrefix+u.ID.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache user %s: %w", u.ID, err)
	}
	return nil
}

// Invalidate drops the cached entry after an update or delete.
func (c *UserCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := c.rdb.Del(ctx, userKeyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("invalidate cached user %s: %w", id, err)
	}
	return nil
}
