// Package session holds the opaque credential for the current user and the
// identity derived from it. The credential is decoded for display only; it is
// never verified client-side.
package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// RoleAdmin is the role marker that grants access to the admin panel.
const RoleAdmin = "ROLE_ADMIN"

// Identity is what the client knows about the current user. Derived from the
// credential; anonymous when there is no credential or it cannot be decoded.
type Identity struct {
	Subject       string
	Roles         []string
	Authenticated bool
}

// IsAdmin reports whether the role set contains the admin marker.
func (id Identity) IsAdmin() bool {
	for _, r := range id.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// Claims is the subset of the JWT payload the client cares about.
type Claims struct {
	Subject string   `json:"sub"`
	Roles   []string `json:"roles"`
}

// DecodeClaims extracts subject and roles from a JWT-shaped credential.
// Malformed input of any kind yields zero Claims and false; it never fails
// the caller.
func DecodeClaims(token string) (Claims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, false
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, false
	}
	return claims, true
}

// credentialFile is the on-disk shape of the persisted credential.
type credentialFile struct {
	Token string `json:"token"`
}

// Store keeps the credential in memory and mirrors it to a file so a new
// process starts logged in. It implements api.TokenSource.
type Store struct {
	mu     sync.RWMutex
	path   string
	token  string
	logger *zap.Logger
}

// NewStore creates a store persisting to path. Call Restore to pick up a
// credential saved by a previous run.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Restore loads the persisted credential, if any. A missing file is not an
// error; a corrupt file is discarded and the user stays anonymous.
func (s *Store) Restore() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credential file: %w", err)
	}

	var cf credentialFile
	if err := json.Unmarshal(data, &cf); err != nil {
		s.logger.Warn("discarding corrupt credential file", zap.String("path", s.path), zap.Error(err))
		return nil
	}

	s.mu.Lock()
	s.token = cf.Token
	s.mu.Unlock()
	return nil
}

// SetToken stores and persists a new credential. An empty token clears the
// session (logout).
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if token == "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove credential file: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}
	data, err := json.Marshal(credentialFile{Token: token})
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

// Clear drops the credential and removes the persisted copy.
func (s *Store) Clear() error {
	return s.SetToken("")
}

// Token returns the current credential, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity derives the current identity from the credential. A credential
// that fails to decode still counts as authenticated (the server is the
// authority); it just carries no subject or roles.
func (s *Store) Identity() Identity {
	token := s.Token()
	if token == "" {
		return Identity{}
	}
	claims, _ := DecodeClaims(token)
	return Identity{
		Subject:       claims.Subject,
		Roles:         claims.Roles,
		Authenticated: true,
	}
}
