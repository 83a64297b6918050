package ports

// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters and internal/api; orchestration in
// internal/session.

import (
	"context"

	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
)

// TokenStore persists the bearer token and the denormalized role hint.
// The token is an opaque string; a present token does not imply validity.
// Writers must only ever fully overwrite or fully clear the token/role pair.
type TokenStore interface {
	// Set overwrites the stored token and role hint as one atomic pair.
	Set(token string, roleHint domainauth.Role) error

	// Token returns the stored token, or ok=false when no session was ever stored.
	Token() (token string, ok bool, err error)

	// RoleHint returns the cached role copy. It is untrusted for authorization
	// decisions and may only inform cosmetic rendering.
	RoleHint() (hint domainauth.Role, ok bool, err error)

	// SetAuthenticatedHint persists the denormalized authenticated flag.
	SetAuthenticatedHint(v bool) error

	// AuthenticatedHint returns the persisted denormalized flag.
	AuthenticatedHint() (bool, error)

	// Clear removes the token, role hint, and authenticated hint together.
	Clear() error
}

// LoginResult carries the server payload of a successful login.
type LoginResult struct {
	Token    string
	Identity domainauth.Identity
}

// RegisterResult carries the server payload of a successful registration.
// Registration never mutates session state.
type RegisterResult struct {
	Token    string
	Identity domainauth.Identity
}

// SessionAPI issues the three session-defining network calls and normalizes
// their failures to the internal/errors taxonomy.
type SessionAPI interface {
	// Login exchanges credentials for a bearer token and verified identity.
	// Fails with invalid_credentials on 401, unknown otherwise.
	Login(ctx context.Context, username, password string) (LoginResult, error)

	// Register creates an account. Fails with username_taken on 409, unknown otherwise.
	Register(ctx context.Context, username, password string) (RegisterResult, error)

	// GetStatus verifies the stored token against the server. A nil, nil return
	// means no token is stored (never logged in), distinct from session_invalid.
	GetStatus(ctx context.Context) (*domainauth.Identity, error)
}
