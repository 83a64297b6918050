package auth

// Package auth contains domain-level types for the client-side authentication
// session. It is pure and free of transport/adapter concerns.

// Role represents an application authorization role as reported by the server.
// Kept in string form so the denormalized hint persists cleanly.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Identity is the verified user record returned by a login or status check.
// It is only ever populated from a server response, never from local storage.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin returns true if the verified role grants admin access.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// State is the process-wide session state triple. The session manager is its
// single writer; guards and views read snapshots of it.
//
// Invariants: IsLoading holds only during the initial verification window, and
// IsAuthenticated never holds while User is nil.
type State struct {
	User            *Identity
	IsAuthenticated bool
	IsLoading       bool
}
