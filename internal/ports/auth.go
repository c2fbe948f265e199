package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/client;
// orchestration in internal/session and internal/service.

import (
	"context"

	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
)

// AuthResult is the outcome of a successful login or registration:
// a bearer token plus the authenticated user record.
type AuthResult struct {
	Token string
	User  domainauth.User
}

// AuthAPI is the remote auth service endpoint group the session manager
// consumes. Login and Register are unauthenticated; Me and UpdateDetails
// carry the current bearer token.
type AuthAPI interface {
	Login(ctx context.Context, creds domainauth.Credentials) (AuthResult, error)
	Register(ctx context.Context, reg domainauth.Registration) (AuthResult, error)
	Me(ctx context.Context) (domainauth.User, error)
	UpdateDetails(ctx context.Context, patch domainauth.AccountUpdate) (domainauth.User, error)
}

// CredentialStore is a small key-value capability holding locally
// persisted credentials. Get returns an empty string when the key is
// absent; Remove of an absent key is a no-op.
type CredentialStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// IdentityProvider initiates and completes an SSO flow against an IdP.
// Used by the server when AUTH_MODE=oidc.
type IdentityProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, redirectURL string) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and
	// returns the authenticated identity as a domain user.
	Exchange(ctx context.Context, code, nonce string) (domainauth.User, error)
}

// TokenIssuer mints and verifies bearer tokens for authenticated accounts.
type TokenIssuer interface {
	// Issue returns a signed token and its unique identifier (jti).
	Issue(user domainauth.User) (token, jti string, err error)

	// Verify parses a token and returns the subject user ID and jti.
	Verify(token string) (userID, jti string, err error)
}

// IssuedTokenStore tracks server-side token validity so logout and
// lockout can revoke bearer tokens before expiry.
type IssuedTokenStore interface {
	Save(ctx context.Context, jti, userID string) error
	Valid(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string) error

	// RevokeAllForUser invalidates every outstanding token owned by the
	// user, e.g. when the account is locked.
	RevokeAllForUser(ctx context.Context, userID string) error
}
