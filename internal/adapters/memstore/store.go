package memstore

// Package memstore provides an in-memory token store for one-shot scripts and
// tests, selected with STORAGE_BACKEND=memory. Nothing survives the process.

import (
	"sync"

	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
	"github.com/syntheaweb/synthea-client/internal/ports"
)

var _ ports.TokenStore = (*Store)(nil)

// Store is an in-memory token store. Safe for concurrent use.
type Store struct {
	mu            sync.Mutex
	token         string
	roleHint      domainauth.Role
	authenticated bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

func (s *Store) Set(token string, roleHint domainauth.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.roleHint = roleHint
	s.authenticated = false
	return nil
}

func (s *Store) Token() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != "", nil
}

func (s *Store) RoleHint() (domainauth.Role, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roleHint, s.roleHint != "", nil
}

func (s *Store) SetAuthenticatedHint(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = v
	return nil
}

func (s *Store) AuthenticatedHint() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated, nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.roleHint = ""
	s.authenticated = false
	return nil
}
