package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// TokenKey is the well-known key the bearer token is stored under
const TokenKey = "accessToken"

// ErrNoCredentials is returned when no token has been stored
var ErrNoCredentials = errors.New("not signed in")

// CredentialStore persists the bearer token between CLI invocations.
// The token is set at sign-in, cleared at sign-out and read on every request.
type CredentialStore struct {
	path string
	mu   sync.RWMutex
}

// NewCredentialStore creates a store backed by the YAML file at path
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// DefaultCredentialStore returns the store under ~/.groupwatch
func DefaultCredentialStore() (*CredentialStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewCredentialStore(filepath.Join(homeDir, ".groupwatch", "credentials.yaml")), nil
}

// Path returns the backing file
func (s *CredentialStore) Path() string { return s.path }

// Token returns the stored bearer token
func (s *CredentialStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	token := values[TokenKey]
	if token == "" {
		return "", ErrNoCredentials
	}
	return token, nil
}

// Set stores token, replacing any previous one
func (s *CredentialStore) Set(token string) error {
	if token == "" {
		return fmt.Errorf("refusing to store an empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[TokenKey] = token
	return s.write(values)
}

// Clear removes the stored token; clearing an empty store is a no-op
func (s *CredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[TokenKey]; !ok {
		return nil
	}
	delete(values, TokenKey)
	return s.write(values)
}

func (s *CredentialStore) read() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}

func (s *CredentialStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}
