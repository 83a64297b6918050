package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntheaweb/synthea-client/internal/adapters/memstore"
	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
	apperrors "github.com/syntheaweb/synthea-client/internal/errors"
	sessionmocks "github.com/syntheaweb/synthea-client/internal/mocks/session"
	"github.com/syntheaweb/synthea-client/internal/ports"
)

func newTestManager(t *testing.T) (*Manager, *memstore.Store, *sessionmocks.StubSessionAPI) {
	t.Helper()
	store := memstore.New()
	api := sessionmocks.NewStubSessionAPI()
	manager := NewManager(ManagerOptions{Store: store, API: api})
	return manager, store, api
}

func TestManager_StartsLoading(t *testing.T) {
	manager, _, _ := newTestManager(t)

	state := manager.Snapshot()
	assert.True(t, state.IsLoading)
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
}

func TestManager_Initialize_NoToken(t *testing.T) {
	manager, _, api := newTestManager(t)

	state, err := manager.Initialize(context.Background())
	require.NoError(t, err)

	assert.False(t, state.IsLoading)
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
	assert.Zero(t, api.StatusCallCount(), "no token means no status check")
}

func TestManager_Initialize_ValidToken(t *testing.T) {
	manager, store, api := newTestManager(t)
	require.NoError(t, store.Set("tok-1", domainauth.RoleUser))

	state, err := manager.Initialize(context.Background())
	require.NoError(t, err)

	assert.False(t, state.IsLoading)
	assert.True(t, state.IsAuthenticated)
	require.NotNil(t, state.User)
	assert.Equal(t, api.DefaultIdentity.ID, state.User.ID)
	assert.Equal(t, 1, api.StatusCallCount())
}

func TestManager_Initialize_IgnoresStaleAuthenticatedHint(t *testing.T) {
	manager, store, api := newTestManager(t)
	require.NoError(t, store.Set("tok-stale", domainauth.RoleAdmin))
	require.NoError(t, store.SetAuthenticatedHint(true))
	api.GetStatusFunc = sessionmocks.SessionInvalidStatus(store)

	state, err := manager.Initialize(context.Background())

	// The failure is absorbed into the state and returned as a diagnostic.
	require.Error(t, err)
	assert.True(t, apperrors.IsSessionInvalid(err))
	assert.False(t, state.IsLoading)
	assert.False(t, state.IsAuthenticated, "persisted hint never overrides the server verdict")
	assert.Nil(t, state.User)

	_, ok, storeErr := store.Token()
	require.NoError(t, storeErr)
	assert.False(t, ok, "rejected token must be purged")
}

func TestManager_Initialize_RunsOnce(t *testing.T) {
	manager, store, api := newTestManager(t)
	require.NoError(t, store.Set("tok-1", domainauth.RoleUser))

	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)
	state, err := manager.Initialize(context.Background())
	require.NoError(t, err)

	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, 1, api.StatusCallCount(), "repeat calls return the committed state")
}

func TestManager_Login_CommitsIdentity(t *testing.T) {
	manager, store, _ := newTestManager(t)
	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)

	identity, err := manager.Login(context.Background(), "alice01", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice01", identity.Username)

	state := manager.Snapshot()
	assert.True(t, state.IsAuthenticated)
	require.NotNil(t, state.User)
	assert.Equal(t, "alice01", state.User.Username)

	authed, err := store.AuthenticatedHint()
	require.NoError(t, err)
	assert.True(t, authed)
}

func TestManager_Login_FailureLeavesStateUntouched(t *testing.T) {
	manager, _, api := newTestManager(t)
	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)

	api.LoginFunc = func(context.Context, string, string) (ports.LoginResult, error) {
		return ports.LoginResult{}, apperrors.InvalidCredentials("invalid username or password")
	}

	_, err = manager.Login(context.Background(), "alice01", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidCredentials(err))

	state := manager.Snapshot()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
}

func TestManager_LoginThenLogout(t *testing.T) {
	manager, store, _ := newTestManager(t)
	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)

	_, err = manager.Login(context.Background(), "alice01", "hunter2")
	require.NoError(t, err)

	require.NoError(t, manager.HandleLogout())

	state := manager.Snapshot()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)

	_, ok, storeErr := store.Token()
	require.NoError(t, storeErr)
	assert.False(t, ok)
}

func TestManager_HandleLogout_Idempotent(t *testing.T) {
	manager, _, _ := newTestManager(t)
	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)

	require.NoError(t, manager.HandleLogout())
	require.NoError(t, manager.HandleLogout())

	state := manager.Snapshot()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
}

func TestManager_RefreshStatus_FailureForcesLogout(t *testing.T) {
	manager, store, api := newTestManager(t)
	require.NoError(t, store.Set("tok-1", domainauth.RoleUser))
	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)
	require.True(t, manager.Snapshot().IsAuthenticated)

	api.GetStatusFunc = sessionmocks.SessionInvalidStatus(store)

	_, err = manager.RefreshStatus(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsSessionInvalid(err))

	state := manager.Snapshot()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
}

func TestManager_RefreshStatus_NoSessionIsLogout(t *testing.T) {
	manager, store, api := newTestManager(t)
	require.NoError(t, store.Set("tok-1", domainauth.RoleUser))
	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)

	// A forced logout raced this refresh: the store is empty again.
	api.GetStatusFunc = func(context.Context) (*domainauth.Identity, error) {
		return nil, nil
	}

	identity, err := manager.RefreshStatus(context.Background())
	require.NoError(t, err)
	assert.Empty(t, identity.ID)
	assert.False(t, manager.Snapshot().IsAuthenticated)
}

func TestManager_RefreshStatus_CoalescesConcurrentCalls(t *testing.T) {
	manager, store, api := newTestManager(t)
	require.NoError(t, store.Set("tok-1", domainauth.RoleUser))
	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)
	before := api.StatusCallCount()

	var enteredOnce sync.Once
	entered := make(chan struct{})
	release := make(chan struct{})
	api.GetStatusFunc = func(context.Context) (*domainauth.Identity, error) {
		enteredOnce.Do(func() { close(entered) })
		<-release
		identity := api.DefaultIdentity
		return &identity, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = manager.RefreshStatus(context.Background())
	}()
	<-entered

	// These callers arrive while the first status check is still in flight
	// and must join it instead of issuing their own.
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = manager.RefreshStatus(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, api.StatusCallCount()-before)
	assert.True(t, manager.Snapshot().IsAuthenticated)
}

func TestManager_UpdateAuthStatus_RefusesTrueWithoutIdentity(t *testing.T) {
	manager, store, _ := newTestManager(t)
	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)

	manager.UpdateAuthStatus(true)

	state := manager.Snapshot()
	assert.False(t, state.IsAuthenticated, "flag cannot flip true without a committed identity")

	authed, err := store.AuthenticatedHint()
	require.NoError(t, err)
	assert.False(t, authed)
}

func TestManager_UpdateAuthStatus_FalseDemotes(t *testing.T) {
	manager, store, _ := newTestManager(t)
	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)
	_, err = manager.Login(context.Background(), "alice01", "hunter2")
	require.NoError(t, err)

	manager.UpdateAuthStatus(false)

	state := manager.Snapshot()
	assert.False(t, state.IsAuthenticated)
	// Identity stays committed; only the flag moved.
	assert.NotNil(t, state.User)

	authed, err := store.AuthenticatedHint()
	require.NoError(t, err)
	assert.False(t, authed)
}

func TestManager_Subscribe_SeesTransitions(t *testing.T) {
	manager, _, _ := newTestManager(t)
	ch, cancel := manager.Subscribe()
	defer cancel()

	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)

	state := <-ch
	assert.False(t, state.IsLoading)
	assert.False(t, state.IsAuthenticated)

	_, err = manager.Login(context.Background(), "alice01", "hunter2")
	require.NoError(t, err)

	state = <-ch
	assert.True(t, state.IsAuthenticated)
	require.NotNil(t, state.User)
	assert.Equal(t, "alice01", state.User.Username)
}

func TestManager_Subscribe_SlowConsumerGetsLatest(t *testing.T) {
	manager, _, _ := newTestManager(t)
	ch, cancel := manager.Subscribe()
	defer cancel()

	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)
	_, err = manager.Login(context.Background(), "alice01", "hunter2")
	require.NoError(t, err)
	require.NoError(t, manager.HandleLogout())

	// Undelivered intermediate states were replaced, never queued.
	state := <-ch
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
}

func TestManager_Snapshot_IsACopy(t *testing.T) {
	manager, _, _ := newTestManager(t)
	_, err := manager.Initialize(context.Background())
	require.NoError(t, err)
	_, err = manager.Login(context.Background(), "alice01", "hunter2")
	require.NoError(t, err)

	first := manager.Snapshot()
	first.User.Username = "mutated"

	second := manager.Snapshot()
	assert.Equal(t, "alice01", second.User.Username)
}
