package cache

import (
	"context"
	"testing"
	"time"

	"backend_boilerplate/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCache_Roundtrip(t *testing.T) {
	rdb := newFakeRedis()
	c := NewUserCache(rdb, 10*time.Minute)
	ctx := context.Background()

	u := &models.User{
		ID:        uuid.New(),
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Liddell",
		IsActive:  true,
	}
	require.NoError(t, c.Set(ctx, u))
	assert.Equal(t, 10*time.Minute, rdb.ttls["usercache:"+u.ID.String()])

	got, err := c.Get(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.IsActive)
}

func TestUserCache_MissIsNil(t *testing.T) {
	c := NewUserCache(newFakeRedis(), 10*time.Minute)

	got, err := c.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserCache_CorruptEntryDropped(t *testing.T) {
	rdb := newFakeRedis()
	c := NewUserCache(rdb, 10*time.Minute)
	ctx := context.Background()

	id := uuid.New()
	rdb.strings["usercache:"+id.String()] = "{not json"

	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, stillThere := rdb.strings["usercache:"+id.String()]
	assert.False(t, stillThere, "corrupt entry should be removed")
}

func TestUserCache_Invalidate(t *testing.T) {
	rdb := newFakeRedis()
	c := NewUserCache(rdb, 10*time.Minute)
	ctx := context.Background()

	u := &models.User{ID: uuid.New(), Username: "bob"}
	require.NoError(t, c.Set(ctx, u))
	require.NoError(t, c.Invalidate(ctx, u.ID))

	got, err := c.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
