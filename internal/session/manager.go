package session

// Package session owns the process-wide authentication session state. The
// Manager is the single writer; guards, the navigation bar, and pages read
// snapshots or subscribe to transitions.

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
	"github.com/syntheaweb/synthea-client/internal/ports"
)

// ManagerOptions groups dependencies for the Manager.
type ManagerOptions struct {
	Store  ports.TokenStore
	API    ports.SessionAPI
	Logger *slog.Logger
}

// Manager orchestrates the session lifecycle: initial verification, login and
// registration, interactive refresh, and logout. State transitions only happen
// through its exposed operations; the failure interceptor writes to the token
// store directly, which guards compensate for by re-checking the store.
type Manager struct {
	store  ports.TokenStore
	api    ports.SessionAPI
	logger *slog.Logger

	mu          sync.Mutex
	state       domainauth.State
	initialized bool
	subscribers map[int]chan domainauth.State
	nextSub     int

	refresh singleflight.Group
}

// NewManager constructs a Manager. The state starts in the loading window and
// stays there until Initialize completes, so guards render pending until the
// bootstrap check has committed.
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:       opts.Store,
		api:         opts.API,
		logger:      logger,
		state:       domainauth.State{IsLoading: true},
		subscribers: make(map[int]chan domainauth.State),
	}
}

// Initialize runs the bootstrap verification once. It never fails the caller:
// an expired or missing session on start is expected, so failures are absorbed
// into the Unauthenticated state and returned only as a diagnostic value.
// The returned state always has IsLoading=false.
func (m *Manager) Initialize(ctx context.Context) (domainauth.State, error) {
	m.mu.Lock()
	if m.initialized {
		st := m.snapshotLocked()
		m.mu.Unlock()
		return st, nil
	}
	m.initialized = true
	m.mu.Unlock()

	_, ok, err := m.store.Token()
	if err != nil {
		m.logger.ErrorContext(ctx, "read token store during bootstrap", "error", err)
		m.finishInit(nil)
		return m.Snapshot(), err
	}
	if !ok {
		// No token: finish unauthenticated without a status-check call.
		m.finishInit(nil)
		return m.Snapshot(), nil
	}

	identity, statusErr := m.api.GetStatus(ctx)
	if statusErr != nil {
		// Expired session on load is normal; log it and land unauthenticated.
		m.logger.InfoContext(ctx, "bootstrap status check failed", "error", statusErr)
		if logoutErr := m.clearSession(); logoutErr != nil {
			m.logger.ErrorContext(ctx, "clear session during bootstrap", "error", logoutErr)
		}
		m.finishInit(nil)
		return m.Snapshot(), statusErr
	}

	m.finishInit(identity)
	return m.Snapshot(), nil
}

// finishInit commits the bootstrap result and closes the loading window.
func (m *Manager) finishInit(user *domainauth.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.User = user
	m.state.IsAuthenticated = user != nil
	m.state.IsLoading = false
	m.publishLocked()
}

// Login authenticates and, on success, commits identity and authenticated flag.
// Typed failures (invalid_credentials, unknown) propagate for form display.
func (m *Manager) Login(ctx context.Context, username, password string) (domainauth.Identity, error) {
	result, err := m.api.Login(ctx, username, password)
	if err != nil {
		return domainauth.Identity{}, err
	}

	user := result.Identity
	m.mu.Lock()
	m.state.User = &user
	m.state.IsAuthenticated = true
	m.publishLocked()
	m.mu.Unlock()

	if hintErr := m.store.SetAuthenticatedHint(true); hintErr != nil {
		m.logger.ErrorContext(ctx, "persist authenticated hint", "error", hintErr)
	}
	return result.Identity, nil
}

// Register creates an account. It never mutates session state; typed failures
// (username_taken, unknown) propagate for form display.
func (m *Manager) Register(ctx context.Context, username, password string) (ports.RegisterResult, error) {
	return m.api.Register(ctx, username, password)
}

// RefreshStatus re-verifies the session interactively. Unlike the bootstrap
// check, failures surface to the caller. Concurrent calls are coalesced into
// one status request.
func (m *Manager) RefreshStatus(ctx context.Context) (domainauth.Identity, error) {
	v, err, _ := m.refresh.Do("status", func() (any, error) {
		return m.api.GetStatus(ctx)
	})
	if err != nil {
		if logoutErr := m.HandleLogout(); logoutErr != nil {
			m.logger.ErrorContext(ctx, "logout after failed refresh", "error", logoutErr)
		}
		return domainauth.Identity{}, err
	}

	identity, _ := v.(*domainauth.Identity)
	if identity == nil {
		// No stored token: a forced logout may have raced this refresh.
		if logoutErr := m.HandleLogout(); logoutErr != nil {
			m.logger.ErrorContext(ctx, "logout after empty refresh", "error", logoutErr)
		}
		return domainauth.Identity{}, nil
	}

	user := *identity
	m.mu.Lock()
	m.state.User = &user
	m.state.IsAuthenticated = true
	m.publishLocked()
	m.mu.Unlock()
	return user, nil
}

// UpdateAuthStatus directly sets the authenticated flag and persists the
// denormalized hint. It does not set identity; an attempt to flip to true
// while no identity is committed is refused to keep the state invariant.
func (m *Manager) UpdateAuthStatus(v bool) {
	m.mu.Lock()
	if v && m.state.User == nil {
		m.mu.Unlock()
		m.logger.Warn("refusing to mark session authenticated without identity")
		return
	}
	m.state.IsAuthenticated = v
	m.publishLocked()
	m.mu.Unlock()

	if err := m.store.SetAuthenticatedHint(v); err != nil {
		m.logger.Error("persist authenticated hint", "error", err)
	}
}

// HandleLogout clears identity and flag and wipes the token store. Calling it
// while already logged out is an observable no-op.
func (m *Manager) HandleLogout() error {
	m.mu.Lock()
	changed := m.state.User != nil || m.state.IsAuthenticated
	m.state.User = nil
	m.state.IsAuthenticated = false
	if changed {
		m.publishLocked()
	}
	m.mu.Unlock()

	return m.clearSession()
}

func (m *Manager) clearSession() error {
	return m.store.Clear()
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() domainauth.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() domainauth.State {
	st := m.state
	if st.User != nil {
		user := *st.User
		st.User = &user
	}
	return st
}

// Subscribe registers for state-change notifications. The channel holds the
// latest state; slow consumers see intermediate states dropped, never stale
// ones. The returned cancel func must be called to release the subscription.
func (m *Manager) Subscribe() (<-chan domainauth.State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan domainauth.State, 1)
	m.subscribers[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publishLocked pushes the current state to every subscriber, replacing any
// undelivered previous state. Callers hold m.mu.
func (m *Manager) publishLocked() {
	st := m.snapshotLocked()
	for _, ch := range m.subscribers {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
