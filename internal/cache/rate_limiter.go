package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	rateKeyPrefix = "ratelimit:"
	ipKeyPrefix   = "ipblacklist:"

	// how long an offending IP stays blocked once it exceeds the limit
	ipBlacklistTTL = time.Hour
)

// Visit identifies the client/route combination being throttled.
type Visit struct {
	IP        string
	UserAgent string
	Path      string
}

func (v Visit) key() string {
	return rateKeyPrefix + v.IP + ":" + v.UserAgent + ":" + v.Path
}

// Verdict is the outcome of one rate-limit check, exposed to clients
// through the X-RateLimit-* response headers.
type Verdict struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RateLimiter throttles requests with a per-visit sliding window held in a
// Redis sorted set of request timestamps.
type RateLimiter struct {
	rdb    Commands
	max    int
	window time.Duration
}

func NewRateLimiter(rdb Commands, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, max: max, window: window}
}

// Check records the request and reports whether it fits the window.
func (l *RateLimiter) Check(ctx context.Context, v Visit) (Verdict, error) {
	now := time.Now()
	key := v.key()
	minScore := strconv.FormatFloat(float64(now.Add(-l.window).UnixNano())/1e9, 'f', -1, 64)

	if err := l.rdb.ZRemRangeByScore(ctx, key, "-inf", minScore).Err(); err != nil {
		return Verdict{}, fmt.Errorf("trim rate window %s: %w", key, err)
	}
	member := &redis.Z{
		Score:  float64(now.UnixNano()) / 1e9,
		Member: strconv.FormatInt(now.UnixNano(), 10),
	}
	if err := l.rdb.ZAdd(ctx, key, member).Err(); err != nil {
		return Verdict{}, fmt.Errorf("record request %s: %w", key, err)
	}
	count, err := l.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return Verdict{}, fmt.Errorf("count requests %s: %w", key, err)
	}
	// keep the set from outliving an idle window
	if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
		return Verdict{}, fmt.Errorf("expire rate window %s: %w", key, err)
	}

	remaining := l.max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Verdict{
		Allowed:   int(count) <= l.max,
		Limit:     l.max,
		Remaining: remaining,
		Reset:     now.Add(l.window),
	}, nil
}

// BlacklistIP blocks an IP after it exceeded the limit.
func (l *RateLimiter) BlacklistIP(ctx context.Context, ip string) error {
	if err := l.rdb.SetEX(ctx, ipKeyPrefix+ip, "true", ipBlacklistTTL).Err(); err != nil {
		return fmt.Errorf("blacklist ip %s: %w", ip, err)
	}
	return nil
}

// IsIPBlacklisted reports whether an IP is currently blocked.
func (l *RateLimiter) IsIPBlacklisted(ctx context.Context, ip string) (bool, error) {
	_, err := l.rdb.Get(ctx, ipKeyPrefix+ip).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("check ip blacklist %s: %w", ip, err)
	}
	return true, nil
}
