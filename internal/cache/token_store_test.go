package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_SaveAndGet(t *testing.T) {
	rdb := newFakeRedis()
	store := NewTokenStore(rdb, 30*time.Minute, 24*time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "user-1:10.0.0.1"))

	value, err := store.Get(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1:10.0.0.1", value)

	// refresh records live for the refresh lifetime, not the access one
	assert.Equal(t, 24*time.Hour, rdb.ttls["jti-1"])
}

func TestTokenStore_GetUnknownIsEmpty(t *testing.T) {
	store := NewTokenStore(newFakeRedis(), 30*time.Minute, 24*time.Hour)

	value, err := store.Get(context.Background(), "never-saved")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestTokenStore_Blacklist(t *testing.T) {
	rdb := newFakeRedis()
	store := NewTokenStore(rdb, 30*time.Minute, 24*time.Hour)
	ctx := context.Background()

	revoked, err := store.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Blacklist(ctx, "jti-2"))

	revoked, err = store.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.True(t, revoked)

	// blacklist entries outlive the access token by the grace period
	assert.Equal(t, 30*time.Minute+time.Minute, rdb.ttls["blacklist:jti-2"])
}

func TestTokenStore_PropagatesRedisErrors(t *testing.T) {
	rdb := newFakeRedis()
	store := NewTokenStore(rdb, 30*time.Minute, 24*time.Hour)
	ctx := context.Background()

	rdb.failNext = errors.New("connection refused")
	_, err := store.Get(ctx, "jti-3")
	require.Error(t, err)

	rdb.failNext = errors.New("connection refused")
	require.Error(t, store.Save(ctx, "jti-3", "info"))
}
