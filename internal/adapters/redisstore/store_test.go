package redisstore

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
	"github.com/syntheaweb/synthea-client/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func newTestStore(t *testing.T, client *redis.Client) *Store {
	t.Helper()
	store := NewWithKey(client, "synthea:test:credentials:"+t.Name())
	t.Cleanup(func() {
		_ = store.Clear()
	})
	return store
}

func TestStore_SetAndToken(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := newTestStore(t, client)

	err := store.Set("tok-abc", domainauth.RoleAdmin)
	require.NoError(t, err)

	token, ok, err := store.Token()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-abc", token)

	role, ok, err := store.RoleHint()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domainauth.RoleAdmin, role)
}

func TestStore_EmptyWhenKeyMissing(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := newTestStore(t, client)

	token, ok, err := store.Token()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)

	authed, err := store.AuthenticatedHint()
	require.NoError(t, err)
	assert.False(t, authed)
}

func TestStore_SetResetsAuthenticatedHint(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := newTestStore(t, client)

	require.NoError(t, store.Set("tok-1", domainauth.RoleUser))
	require.NoError(t, store.SetAuthenticatedHint(true))

	authed, err := store.AuthenticatedHint()
	require.NoError(t, err)
	require.True(t, authed)

	require.NoError(t, store.Set("tok-2", domainauth.RoleUser))

	authed, err = store.AuthenticatedHint()
	require.NoError(t, err)
	assert.False(t, authed)
}

func TestStore_Clear(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := newTestStore(t, client)

	require.NoError(t, store.Set("tok-1", domainauth.RoleUser))
	require.NoError(t, store.Clear())

	token, ok, err := store.Token()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)

	// Clearing an already-empty store succeeds.
	require.NoError(t, store.Clear())
}

func TestStore_CorruptValueSurfacesError(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := newTestStore(t, client)

	err := client.Set(context.Background(), store.key, "{not json", 0).Err()
	require.NoError(t, err)

	_, _, err = store.Token()
	assert.Error(t, err)
}
