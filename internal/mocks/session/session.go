package session

// Package session contains simple hand-written test doubles for the session
// ports. These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
	apperrors "github.com/syntheaweb/synthea-client/internal/errors"
	"github.com/syntheaweb/synthea-client/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SessionAPI = (*StubSessionAPI)(nil)
	_ ports.Navigator  = (*RecordingNavigator)(nil)
	_ ports.Notifier   = (*RecordingNotifier)(nil)
)

// StubSessionAPI simulates the backend session endpoints with deterministic
// defaults. Override the Func fields for failure scenarios.
type StubSessionAPI struct {
	LoginFunc     func(ctx context.Context, username, password string) (ports.LoginResult, error)
	RegisterFunc  func(ctx context.Context, username, password string) (ports.RegisterResult, error)
	GetStatusFunc func(ctx context.Context) (*domainauth.Identity, error)

	// DefaultIdentity is returned by the default login and status behaviors.
	DefaultIdentity domainauth.Identity
	// DefaultToken is returned by the default login behavior.
	DefaultToken string

	// Call counters for assertions.
	mu          sync.Mutex
	LoginCalls  int
	StatusCalls int
}

// NewStubSessionAPI creates a stub with sensible defaults.
func NewStubSessionAPI() *StubSessionAPI {
	return &StubSessionAPI{
		DefaultIdentity: domainauth.Identity{
			ID:       "user-1",
			Username: "alice01",
			Role:     domainauth.RoleUser,
		},
		DefaultToken: "t1",
	}
}

func (s *StubSessionAPI) Login(ctx context.Context, username, password string) (ports.LoginResult, error) {
	s.mu.Lock()
	s.LoginCalls++
	s.mu.Unlock()

	if s.LoginFunc != nil {
		return s.LoginFunc(ctx, username, password)
	}
	identity := s.DefaultIdentity
	identity.Username = username
	return ports.LoginResult{Token: s.DefaultToken, Identity: identity}, nil
}

func (s *StubSessionAPI) Register(ctx context.Context, username, password string) (ports.RegisterResult, error) {
	if s.RegisterFunc != nil {
		return s.RegisterFunc(ctx, username, password)
	}
	identity := s.DefaultIdentity
	identity.Username = username
	return ports.RegisterResult{Token: s.DefaultToken, Identity: identity}, nil
}

func (s *StubSessionAPI) GetStatus(ctx context.Context) (*domainauth.Identity, error) {
	s.mu.Lock()
	s.StatusCalls++
	s.mu.Unlock()

	if s.GetStatusFunc != nil {
		return s.GetStatusFunc(ctx)
	}
	identity := s.DefaultIdentity
	return &identity, nil
}

// StatusCallCount returns how many status checks were issued.
func (s *StubSessionAPI) StatusCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.StatusCalls
}

// SessionInvalidStatus is a ready-made GetStatusFunc for expired-session scenarios.
func SessionInvalidStatus(store ports.TokenStore) func(ctx context.Context) (*domainauth.Identity, error) {
	return func(context.Context) (*domainauth.Identity, error) {
		// Mirrors the real client: a rejected status check clears the store.
		if store != nil {
			_ = store.Clear()
		}
		return nil, apperrors.SessionInvalid("session token rejected by server")
	}
}

// RecordingNavigator tracks navigation for assertions.
type RecordingNavigator struct {
	mu      sync.Mutex
	current ports.View
	History []ports.View
}

// NewRecordingNavigator starts on the given view.
func NewRecordingNavigator(start ports.View) *RecordingNavigator {
	return &RecordingNavigator{current: start}
}

func (n *RecordingNavigator) Current() ports.View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *RecordingNavigator) NavigateTo(v ports.View) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = v
	n.History = append(n.History, v)
}

// NavigationCount returns how many navigations happened.
func (n *RecordingNavigator) NavigationCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.History)
}

// RecordingNotifier collects notices for assertions.
type RecordingNotifier struct {
	mu       sync.Mutex
	Messages []string
}

func (n *RecordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, message)
}

// NoticeCount returns how many notices were surfaced.
func (n *RecordingNotifier) NoticeCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Messages)
}
