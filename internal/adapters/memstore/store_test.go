package memstore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
)

func TestStore_Empty(t *testing.T) {
	store := New()

	token, ok, err := store.Token()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)

	authed, err := store.AuthenticatedHint()
	require.NoError(t, err)
	assert.False(t, authed)
}

func TestStore_SetAndClear(t *testing.T) {
	store := New()

	require.NoError(t, store.Set("tok-1", domainauth.RoleAdmin))
	require.NoError(t, store.SetAuthenticatedHint(true))

	token, ok, err := store.Token()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-1", token)

	role, ok, err := store.RoleHint()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domainauth.RoleAdmin, role)

	require.NoError(t, store.Clear())

	_, ok, err = store.Token()
	require.NoError(t, err)
	assert.False(t, ok)
	authed, err := store.AuthenticatedHint()
	require.NoError(t, err)
	assert.False(t, authed)
}

func TestStore_SetResetsAuthenticatedHint(t *testing.T) {
	store := New()

	require.NoError(t, store.Set("tok-1", domainauth.RoleUser))
	require.NoError(t, store.SetAuthenticatedHint(true))
	require.NoError(t, store.Set("tok-2", domainauth.RoleUser))

	authed, err := store.AuthenticatedHint()
	require.NoError(t, err)
	assert.False(t, authed)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("tok", domainauth.RoleUser)
			_, _, _ = store.Token()
			_ = store.SetAuthenticatedHint(true)
			_, _ = store.AuthenticatedHint()
			_ = store.Clear()
		}()
	}
	wg.Wait()
}
