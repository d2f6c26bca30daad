package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Create(ctx, "sid1", NewData(userID), time.Hour))

	data, ok, err := store.Get(ctx, "sid1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, userID, data.UserID)

	_, ok, err = store.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "sid1", NewData(uuid.New()), time.Minute))

	mr.FastForward(2 * time.Minute)
	_, ok, err := store.Get(ctx, "sid1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisTouchSlidesExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "sid1", NewData(uuid.New()), time.Minute))

	mr.FastForward(50 * time.Second)
	require.NoError(t, store.Touch(ctx, "sid1", time.Minute))

	mr.FastForward(50 * time.Second)
	_, ok, err := store.Get(ctx, "sid1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Touching a missing key is a no-op, not an error.
	require.NoError(t, store.Touch(ctx, "missing", time.Minute))
}

func TestRedisRemoveIsSingleShot(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Create(ctx, "sid1", NewData(userID), time.Hour))

	data, ok, err := store.Remove(ctx, "sid1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, userID, data.UserID)

	_, ok, err = store.Remove(ctx, "sid1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisAttachProvider(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "sid1", NewData(uuid.New()), time.Hour))

	require.NoError(t, store.Attach(ctx, "sid1", ProviderRecord{Provider: "keycloak", Subject: "a"}))
	require.NoError(t, store.Attach(ctx, "sid1", ProviderRecord{Provider: "keycloak", Subject: "b"}))

	data, ok, err := store.Get(ctx, "sid1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, data.Providers, 1)
	assert.Equal(t, "b", data.Providers[0].Subject)

	// Dead session: silently ignored.
	require.NoError(t, store.Attach(ctx, "missing", ProviderRecord{Provider: "keycloak"}))
}
