package redis

// Package redis provides Redis-backed adapters for the taponn service.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taponn/taponn-api/internal/ports"
)

// TokenStore is a Redis-backed allowlist of issued JWT ids. A token is
// accepted only while its jti key exists; Revoke deletes the key, so
// logout and lockout invalidate bearer tokens before their exp claim.
type TokenStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.IssuedTokenStore = (*TokenStore)(nil)

// NewTokenStore creates a token allowlist with the given key prefix and
// entry TTL. The TTL should match (or slightly exceed) the token expiry.
func NewTokenStore(client redis.UniversalClient, prefix string, ttl time.Duration) *TokenStore {
	if prefix == "" {
		prefix = "token:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenStore{client: client, prefix: prefix, ttl: ttl}
}

// Save registers a freshly issued token id for its owner.
func (s *TokenStore) Save(ctx context.Context, jti, userID string) error {
	if jti == "" {
		return errors.New("token id cannot be empty")
	}
	if err := s.client.Set(ctx, s.prefix+jti, userID, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

// Valid reports whether the token id is still allowlisted.
func (s *TokenStore) Valid(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := s.client.Exists(ctx, s.prefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("redis check token: %w", err)
	}
	return n > 0, nil
}

// Revoke removes the token id. Revoking an unknown id is a no-op.
func (s *TokenStore) Revoke(ctx context.Context, jti string) error {
	if jti == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+jti).Err(); err != nil {
		return fmt.Errorf("redis revoke token: %w", err)
	}
	return nil
}

// RevokeAllForUser scans the allowlist and removes every token owned by
// the user. Used when an account is locked.
func (s *TokenStore) RevokeAllForUser(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		owner, err := s.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("redis read token owner: %w", err)
		}
		if owner != userID {
			continue
		}
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis revoke token: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan tokens: %w", err)
	}
	return nil
}
