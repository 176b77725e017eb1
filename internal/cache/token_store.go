package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const blacklistKeyPrefix = "blacklist:"

// blacklistGrace keeps a revoked token blacklisted slightly past its natural
// expiry so clock skew cannot resurrect it.
const blacklistGrace = time.Minute

// TokenStore keeps refresh-token records and the revocation blacklist.
// Keys are token IDs (jti claims), values are "<userID>:<clientIP>".
type TokenStore struct {
	rdb        Commands
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenStore(rdb Commands, accessTTL, refreshTTL time.Duration) *TokenStore {
	return &TokenStore{rdb: rdb, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Save records an issued refresh token under its ID for its full lifetime.
func (s *TokenStore) Save(ctx context.Context, tokenID, userInfo string) error {
	if err := s.rdb.SetEX(ctx, tokenID, userInfo, s.refreshTTL).Err(); err != nil {
		return fmt.Errorf("save token %s: %w", tokenID, err)
	}
	return nil
}

// Get returns the user info stored for a token ID, or "" when unknown.
func (s *TokenStore) Get(ctx context.Context, tokenID string) (string, error) {
	value, err := s.rdb.Get(ctx, tokenID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("get token %s: %w", tokenID, err)
	}
	return value, nil
}

// Blacklist marks a token ID as revoked until it would have expired anyway.
func (s *TokenStore) Blacklist(ctx context.Context, tokenID string) error {
	ttl := s.accessTTL + blacklistGrace
	if err := s.rdb.SetEX(ctx, blacklistKeyPrefix+tokenID, "true", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token %s: %w", tokenID, err)
	}
	return nil
}

// IsBlacklisted reports whether a token ID has been revoked.
func (s *TokenStore) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	_, err := s.rdb.Get(ctx, blacklistKeyPrefix+tokenID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("check blacklist for token %s: %w", tokenID, err)
	}
	return true, nil
}
