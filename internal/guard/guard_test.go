package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
	"github.com/syntheaweb/synthea-client/internal/ports"
)

func user(role domainauth.Role) *domainauth.Identity {
	return &domainauth.Identity{ID: "user-1", Username: "alice01", Role: role}
}

func TestAuthenticated(t *testing.T) {
	tests := []struct {
		name         string
		state        domainauth.State
		tokenPresent bool
		want         Decision
	}{
		{
			name:         "loading gates everything",
			state:        domainauth.State{IsLoading: true},
			tokenPresent: true,
			want:         DecisionPending,
		},
		{
			name:         "loading gates even with committed identity",
			state:        domainauth.State{IsLoading: true, IsAuthenticated: true, User: user(domainauth.RoleUser)},
			tokenPresent: true,
			want:         DecisionPending,
		},
		{
			name:         "authenticated with token renders",
			state:        domainauth.State{IsAuthenticated: true, User: user(domainauth.RoleUser)},
			tokenPresent: true,
			want:         DecisionRender,
		},
		{
			name:         "unauthenticated redirects to login",
			state:        domainauth.State{},
			tokenPresent: false,
			want:         DecisionRedirectLogin,
		},
		{
			name: "stale flag without token redirects",
			// A forced logout wiped the store but the flag has not caught up.
			state:        domainauth.State{IsAuthenticated: true, User: user(domainauth.RoleUser)},
			tokenPresent: false,
			want:         DecisionRedirectLogin,
		},
		{
			name:         "token without verified session redirects",
			state:        domainauth.State{},
			tokenPresent: true,
			want:         DecisionRedirectLogin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Authenticated(tt.state, tt.tokenPresent)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdmin(t *testing.T) {
	tests := []struct {
		name  string
		state domainauth.State
		want  Decision
	}{
		{
			name:  "loading gates everything",
			state: domainauth.State{IsLoading: true},
			want:  DecisionPending,
		},
		{
			name:  "admin renders",
			state: domainauth.State{IsAuthenticated: true, User: user(domainauth.RoleAdmin)},
			want:  DecisionRender,
		},
		{
			name:  "plain user goes home",
			state: domainauth.State{IsAuthenticated: true, User: user(domainauth.RoleUser)},
			want:  DecisionRedirectHome,
		},
		{
			name:  "unauthenticated goes home",
			state: domainauth.State{},
			want:  DecisionRedirectHome,
		},
		{
			name:  "authenticated flag without identity goes home",
			state: domainauth.State{IsAuthenticated: true},
			want:  DecisionRedirectHome,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Admin(tt.state)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecision_Target(t *testing.T) {
	view, ok := DecisionRedirectLogin.Target()
	assert.True(t, ok)
	assert.Equal(t, ports.ViewLogin, view)

	view, ok = DecisionRedirectHome.Target()
	assert.True(t, ok)
	assert.Equal(t, ports.ViewHome, view)

	_, ok = DecisionRender.Target()
	assert.False(t, ok)
	_, ok = DecisionPending.Target()
	assert.False(t, ok)
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "pending", DecisionPending.String())
	assert.Equal(t, "render", DecisionRender.String())
	assert.Equal(t, "redirect-login", DecisionRedirectLogin.String())
	assert.Equal(t, "redirect-home", DecisionRedirectHome.String())
}
