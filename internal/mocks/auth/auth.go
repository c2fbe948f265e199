// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"sync"

	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	apperrors "github.com/taponn/taponn-api/internal/errors"
	"github.com/taponn/taponn-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthAPI          = (*MockAuthAPI)(nil)
	_ ports.CredentialStore  = (*MemoryCredentialStore)(nil)
	_ ports.IssuedTokenStore = (*MemoryTokenStore)(nil)
)

// MockAuthAPI is a func-field double for the remote auth endpoint group.
// Unset fields return an unauthorized error, the safe default for a
// client that has not signed in.
type MockAuthAPI struct {
	LoginFunc         func(ctx context.Context, creds domainauth.Credentials) (ports.AuthResult, error)
	RegisterFunc      func(ctx context.Context, reg domainauth.Registration) (ports.AuthResult, error)
	MeFunc            func(ctx context.Context) (domainauth.User, error)
	UpdateDetailsFunc func(ctx context.Context, patch domainauth.AccountUpdate) (domainauth.User, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockAuthAPI) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// Calls returns the ordered method names invoked so far.
func (m *MockAuthAPI) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockAuthAPI) Login(ctx context.Context, creds domainauth.Credentials) (ports.AuthResult, error) {
	m.record("Login")
	if m.LoginFunc == nil {
		return ports.AuthResult{}, apperrors.Unauthorized("Invalid email or password")
	}
	return m.LoginFunc(ctx, creds)
}

func (m *MockAuthAPI) Register(ctx context.Context, reg domainauth.Registration) (ports.AuthResult, error) {
	m.record("Register")
	if m.RegisterFunc == nil {
		return ports.AuthResult{}, apperrors.Unauthorized("Registration rejected")
	}
	return m.RegisterFunc(ctx, reg)
}

func (m *MockAuthAPI) Me(ctx context.Context) (domainauth.User, error) {
	m.record("Me")
	if m.MeFunc == nil {
		return domainauth.User{}, apperrors.Unauthorized("Not logged in")
	}
	return m.MeFunc(ctx)
}

func (m *MockAuthAPI) UpdateDetails(ctx context.Context, patch domainauth.AccountUpdate) (domainauth.User, error) {
	m.record("UpdateDetails")
	if m.UpdateDetailsFunc == nil {
		return domainauth.User{}, apperrors.Unauthorized("Not logged in")
	}
	return m.UpdateDetailsFunc(ctx, patch)
}

// MemoryCredentialStore is a map-backed credential store. The zero value
// is ready to use.
type MemoryCredentialStore struct {
	mu     sync.RWMutex
	values map[string]string

	// FailNext makes the next operation return an error, for testing
	// storage failure paths.
	FailNext error
}

func (s *MemoryCredentialStore) takeErr() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}

func (s *MemoryCredentialStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return "", err
	}
	return s.values[key], nil
}

func (s *MemoryCredentialStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return err
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

func (s *MemoryCredentialStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return err
	}
	delete(s.values, key)
	return nil
}

// MemoryTokenStore is a map-backed jti allowlist.
type MemoryTokenStore struct {
	mu     sync.Mutex
	owners map[string]string
}

func (s *MemoryTokenStore) Save(_ context.Context, jti, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owners == nil {
		s.owners = make(map[string]string)
	}
	s.owners[jti] = userID
	return nil
}

func (s *MemoryTokenStore) Valid(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.owners[jti]
	return ok, nil
}

func (s *MemoryTokenStore) Revoke(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.owners, jti)
	return nil
}

func (s *MemoryTokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti, owner := range s.owners {
		if owner == userID {
			delete(s.owners, jti)
		}
	}
	return nil
}

// Count returns how many tokens are currently allowlisted.
func (s *MemoryTokenStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.owners)
}
