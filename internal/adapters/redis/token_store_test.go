package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taponn/taponn-api/internal/testutil"
)

func TestTokenStoreSaveAndValid(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewTokenStore(client, "test-token:", time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "user-1"))

	ok, err := store.Valid(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Valid(ctx, "jti-unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenStoreRevoke(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewTokenStore(client, "test-token:", time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "user-1"))
	require.NoError(t, store.Revoke(ctx, "jti-1"))

	ok, err := store.Valid(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Revoking again is a no-op.
	require.NoError(t, store.Revoke(ctx, "jti-1"))
	require.NoError(t, store.Revoke(ctx, ""))
}

func TestTokenStoreRevokeAllForUser(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewTokenStore(client, "test-token:", time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-a", "user-1"))
	require.NoError(t, store.Save(ctx, "jti-b", "user-1"))
	require.NoError(t, store.Save(ctx, "jti-c", "user-2"))

	require.NoError(t, store.RevokeAllForUser(ctx, "user-1"))

	for jti, want := range map[string]bool{"jti-a": false, "jti-b": false, "jti-c": true} {
		ok, err := store.Valid(ctx, jti)
		require.NoError(t, err)
		assert.Equal(t, want, ok, jti)
	}
}

func TestTokenStoreSaveRequiresID(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewTokenStore(client, "test-token:", time.Minute)

	require.Error(t, store.Save(context.Background(), "", "user-1"))
}

func TestTokenStoreExpiry(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewTokenStore(client, "test-token:", time.Second)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-short", "user-1"))

	ttl, err := client.TTL(ctx, "test-token:jti-short").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Second)
}
