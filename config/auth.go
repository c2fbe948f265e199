package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the dashboard sign-in.
type AuthMode string

const (
	// AuthModePassword uses email/password credentials (the default).
	AuthModePassword AuthMode = "password"
	// AuthModeOIDC uses OIDC single sign-on for the admin dashboard.
	AuthModeOIDC AuthMode = "oidc"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "password", "oidc":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, oidc)", v)
	}
}

// OIDCConfig contains OIDC configuration for admin SSO.
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"taponn"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/api/v1/auth/sso/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// TokenConfig controls bearer token issuance.
type TokenConfig struct {
	// Secret signs issued HS256 tokens. Required outside dev mode.
	Secret string `env:"SECRET"`

	// TTL is the lifetime of issued tokens.
	TTL time.Duration `env:"TTL" envDefault:"24h"`

	// Issuer is the iss claim on issued tokens.
	Issuer string `env:"ISSUER" envDefault:"taponn"`
}

// LockoutConfig controls the failed-login lockout policy.
type LockoutConfig struct {
	// MaxAttempts is the number of consecutive failures before a lock.
	MaxAttempts int `env:"MAX_ATTEMPTS" envDefault:"5"`

	// Duration is how long a locked account stays locked.
	Duration time.Duration `env:"DURATION" envDefault:"15m"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines how dashboard users sign in.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// Token issuance configuration.
	Token TokenConfig `envPrefix:"AUTH_TOKEN_"`

	// Lockout policy for repeated failed logins.
	Lockout LockoutConfig `envPrefix:"AUTH_LOCKOUT_"`
}

// Sanitize applies guardrails to auth configuration values.
func (c *AuthConfig) Sanitize() {
	if c.Token.TTL <= 0 {
		c.Token.TTL = 24 * time.Hour
	}
	if c.Token.Issuer = strings.TrimSpace(c.Token.Issuer); c.Token.Issuer == "" {
		c.Token.Issuer = "taponn"
	}
	if c.Lockout.MaxAttempts <= 0 {
		c.Lockout.MaxAttempts = 5
	}
	if c.Lockout.Duration <= 0 {
		c.Lockout.Duration = 15 * time.Minute
	}
}
