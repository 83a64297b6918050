package transport

// Package transport provides the process-wide HTTP plumbing: bearer-token
// injection for protected calls and the global authentication-failure
// interceptor every response passes through.

import (
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	apperrors "github.com/syntheaweb/synthea-client/internal/errors"
	"github.com/syntheaweb/synthea-client/internal/ports"
)

// storeTokenSource adapts the token store to oauth2.TokenSource so that
// oauth2.Transport stamps the Authorization header on every protected request.
// The token is read fresh per request; login and logout change it underneath.
type storeTokenSource struct {
	store ports.TokenStore
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	token, ok, err := s.store.Token()
	if err != nil {
		return nil, fmt.Errorf("read token store: %w", err)
	}
	if !ok {
		return nil, apperrors.Unauthenticated("no session token stored")
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// TokenSource returns an oauth2.TokenSource backed by the token store.
func TokenSource(store ports.TokenStore) oauth2.TokenSource {
	return storeTokenSource{store: store}
}

// NewAuthClient builds the HTTP client for protected endpoints: bearer
// injection over the given base transport (typically the interceptor).
func NewAuthClient(store ports.TokenStore, base http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: TokenSource(store),
			Base:   base,
		},
	}
}
