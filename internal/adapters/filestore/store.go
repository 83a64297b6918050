package filestore

// Package filestore provides the default, file-backed token store. It is the
// client-local persistent storage for the two-entry credential pair.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
	"github.com/syntheaweb/synthea-client/internal/ports"
)

var _ ports.TokenStore = (*Store)(nil)

const (
	credentialsFileMode = 0o600
	credentialsDirMode  = 0o700
)

// record is the on-disk shape. The whole record is replaced on every write so
// readers never observe a partial token/role pair.
type record struct {
	Token         string          `json:"token,omitempty"`
	RoleHint      domainauth.Role `json:"role,omitempty"`
	Authenticated bool            `json:"authenticated,omitempty"`
}

// Store is a file-backed token store. All writes go through a temp file and
// rename, which is atomic on POSIX filesystems.
type Store struct {
	path string
}

// New creates a file-backed store at the given path.
func New(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the conventional credentials path under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "synthea", "credentials.json"), nil
}

// Set overwrites the stored token and role hint as one atomic pair.
// The authenticated hint resets; the session manager sets it separately.
func (s *Store) Set(token string, roleHint domainauth.Role) error {
	return s.write(record{Token: token, RoleHint: roleHint})
}

// Token returns the stored token, or ok=false when none is stored.
func (s *Store) Token() (string, bool, error) {
	rec, err := s.read()
	if err != nil {
		return "", false, err
	}
	return rec.Token, rec.Token != "", nil
}

// RoleHint returns the cached role copy.
func (s *Store) RoleHint() (domainauth.Role, bool, error) {
	rec, err := s.read()
	if err != nil {
		return "", false, err
	}
	return rec.RoleHint, rec.RoleHint != "", nil
}

// SetAuthenticatedHint persists the denormalized authenticated flag.
func (s *Store) SetAuthenticatedHint(v bool) error {
	rec, err := s.read()
	if err != nil {
		return err
	}
	rec.Authenticated = v
	return s.write(rec)
}

// AuthenticatedHint returns the persisted denormalized flag.
func (s *Store) AuthenticatedHint() (bool, error) {
	rec, err := s.read()
	if err != nil {
		return false, err
	}
	return rec.Authenticated, nil
}

// Clear removes the credentials file entirely.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials file: %w", err)
	}
	return nil
}

func (s *Store) read() (record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return record{}, nil
		}
		return record{}, fmt.Errorf("read credentials file: %w", err)
	}

	var rec record
	if unmarshalErr := json.Unmarshal(data, &rec); unmarshalErr != nil {
		// A corrupt file is equivalent to no session; the next write replaces it.
		return record{}, nil
	}
	return rec, nil
}

func (s *Store) write(rec record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), credentialsDirMode); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp credentials file: %w", err)
	}
	tmpName := tmp.Name()

	if err = writeAndClose(tmp, data); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err = os.Chmod(tmpName, credentialsFileMode); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod credentials file: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace credentials file: %w", err)
	}
	return nil
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write credentials file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close credentials file: %w", err)
	}
	return nil
}
