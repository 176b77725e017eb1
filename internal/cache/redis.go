package cache

import (
	"context"
	"fmt"
	"time"

	"backend_boilerplate/internal/config"

	"github.com/go-redis/redis/v8"
)

// Commands is the subset of the go-redis API the cache layer relies on.
// Narrowing the surface keeps hand-written fakes small in tests.
type Commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetEX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	ZRemRangeByScore(ctx context.Context, key, min, max string) *redis.IntCmd
	ZAdd(ctx context.Context, key string, members ...*redis.Z) *redis.IntCmd
	ZCard(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

var _ Commands = (*redis.Client)(nil)

// Connect opens a Redis client and verifies the connection.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// Cache aggregates all Redis-backed stores behind one wiring point,
// mirroring the repository aggregate.
type Cache struct {
	Tokens      *TokenStore
	Users       *UserCache
	RateLimiter *RateLimiter
}

func NewCache(client *redis.Client, cfg config.AuthConfig) *Cache {
	return &Cache{
		Tokens:      NewTokenStore(client, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL()),
		Users:       NewUserCache(client, cfg.CacheTTL()),
		RateLimiter: NewRateLimiter(client, cfg.RateLimitMax, cfg.RateLimitWindow()),
	}
}
