// Package jwt mints and verifies the HS256 bearer tokens the auth
// endpoints hand out.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	"github.com/taponn/taponn-api/internal/ports"
)

// Config controls token issuance.
type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Issuer signs and verifies HS256 tokens. Each token carries a unique
// jti so the Redis allowlist can revoke it individually.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

var _ ports.TokenIssuer = (*Issuer)(nil)

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// NewIssuer builds an Issuer. The signing secret is required.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: signing secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "taponn"
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(cfg.Secret), ttl: ttl, issuer: issuer, now: now}, nil
}

// Issue signs a token for the user and returns it with its jti.
func (i *Issuer) Issue(user domainauth.User) (string, string, error) {
	if user.ID == "" {
		return "", "", errors.New("jwt: user id is required")
	}

	jti := uuid.NewString()
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    i.issuer,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, jti, nil
}

// Verify parses and validates a token, returning the subject and jti.
func (i *Issuer) Verify(tokenString string) (string, string, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("jwt: unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", "", fmt.Errorf("jwt: parse token: %w", err)
	}
	if !token.Valid || c.Subject == "" || c.ID == "" {
		return "", "", errors.New("jwt: token is not valid")
	}
	return c.Subject, c.ID, nil
}
