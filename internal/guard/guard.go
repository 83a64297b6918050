package guard

// Package guard implements the access-control decision points keyed on session
// state. Both guards are pure functions; callers render, redirect, or show a
// pending indicator based on the decision.

import (
	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
	"github.com/syntheaweb/synthea-client/internal/ports"
)

// Decision is the outcome of evaluating a guard against the session state.
type Decision int

const (
	// DecisionPending means the verification window is still open: render a
	// pending indicator and make no redirect decision yet.
	DecisionPending Decision = iota
	// DecisionRender allows the protected content.
	DecisionRender
	// DecisionRedirectLogin sends the user to the login view.
	DecisionRedirectLogin
	// DecisionRedirectHome sends the user to the home view.
	DecisionRedirectHome
)

// String returns a readable form for logs and tests.
func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionRender:
		return "render"
	case DecisionRedirectLogin:
		return "redirect-login"
	case DecisionRedirectHome:
		return "redirect-home"
	default:
		return "unknown"
	}
}

// Target returns the view a redirect decision lands on, or ok=false when the
// decision is not a redirect.
func (d Decision) Target() (ports.View, bool) {
	switch d {
	case DecisionRedirectLogin:
		return ports.ViewLogin, true
	case DecisionRedirectHome:
		return ports.ViewHome, true
	default:
		return "", false
	}
}

// Authenticated gates authenticated-only views. Loading is a hard gate. Once
// loaded, both the in-memory flag and the raw token must be present: the flag
// can lag a forced logout that wrote directly to the token store, and checking
// the store closes that race.
func Authenticated(state domainauth.State, tokenPresent bool) Decision {
	if state.IsLoading {
		return DecisionPending
	}
	if !tokenPresent || !state.IsAuthenticated {
		return DecisionRedirectLogin
	}
	return DecisionRender
}

// Admin gates admin-only views. Role is read only from the verified identity,
// never from the denormalized storage hint.
func Admin(state domainauth.State) Decision {
	if state.IsLoading {
		return DecisionPending
	}
	if !state.IsAuthenticated || state.User == nil || !state.User.IsAdmin() {
		return DecisionRedirectHome
	}
	return DecisionRender
}
