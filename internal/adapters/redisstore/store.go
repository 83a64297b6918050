package redisstore

// Package redisstore provides a Redis-backed token store for shared or headless
// environments (CI runners, kiosk fleets) where several client processes need
// the same credential pair.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
	"github.com/syntheaweb/synthea-client/internal/ports"
)

var _ ports.TokenStore = (*Store)(nil)

const defaultKey = "synthea:credentials"

// record mirrors the filestore shape: one JSON blob under one key, so every
// write replaces the token/role pair atomically.
type record struct {
	Token         string          `json:"token,omitempty"`
	RoleHint      domainauth.Role `json:"role,omitempty"`
	Authenticated bool            `json:"authenticated,omitempty"`
}

// Store is a Redis-backed token store.
type Store struct {
	client  redis.UniversalClient
	key     string
	timeout time.Duration
}

// New creates a Redis token store with the default key.
func New(client redis.UniversalClient) *Store {
	return NewWithKey(client, defaultKey)
}

// NewWithKey creates a Redis token store under a custom key.
func NewWithKey(client redis.UniversalClient, key string) *Store {
	return &Store{
		client:  client,
		key:     key,
		timeout: 2 * time.Second,
	}
}

func (s *Store) Set(token string, roleHint domainauth.Role) error {
	return s.write(record{Token: token, RoleHint: roleHint})
}

func (s *Store) Token() (string, bool, error) {
	rec, err := s.read()
	if err != nil {
		return "", false, err
	}
	return rec.Token, rec.Token != "", nil
}

func (s *Store) RoleHint() (domainauth.Role, bool, error) {
	rec, err := s.read()
	if err != nil {
		return "", false, err
	}
	return rec.RoleHint, rec.RoleHint != "", nil
}

func (s *Store) SetAuthenticatedHint(v bool) error {
	rec, err := s.read()
	if err != nil {
		return err
	}
	rec.Authenticated = v
	return s.write(rec)
}

func (s *Store) AuthenticatedHint() (bool, error) {
	rec, err := s.read()
	if err != nil {
		return false, err
	}
	return rec.Authenticated, nil
}

func (s *Store) Clear() error {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *Store) read() (record, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return record{}, nil
		}
		return record{}, fmt.Errorf("redis get: %w", err)
	}

	var rec record
	if unmarshalErr := json.Unmarshal([]byte(data), &rec); unmarshalErr != nil {
		return record{}, fmt.Errorf("unmarshal credentials: %w", unmarshalErr)
	}
	return rec, nil
}

func (s *Store) write(rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	ctx, cancel := s.opContext()
	defer cancel()

	if setErr := s.client.Set(ctx, s.key, data, 0).Err(); setErr != nil {
		return fmt.Errorf("redis set: %w", setErr)
	}
	return nil
}

func (s *Store) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
