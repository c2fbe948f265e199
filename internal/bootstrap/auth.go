package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/taponn/taponn-api/config"
	"github.com/taponn/taponn-api/internal/adapters/jwt"
	"github.com/taponn/taponn-api/internal/adapters/oidc"
	redisadapter "github.com/taponn/taponn-api/internal/adapters/redis"
	"github.com/taponn/taponn-api/internal/core"
	"github.com/taponn/taponn-api/internal/data"
	"github.com/taponn/taponn-api/internal/ports"
	"github.com/taponn/taponn-api/internal/service"
)

// AuthDeps contains dependencies for building the account service.
type AuthDeps struct {
	Auth        config.AuthConfig
	Accounts    core.AccountRepository
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildAccountService wires the token issuer, the Redis-backed token
// allowlist, and the lockout policy into an account service.
func BuildAccountService(deps AuthDeps) (*service.AccountService, error) {
	issuer, err := jwt.NewIssuer(jwt.Config{
		Secret: deps.Auth.Token.Secret,
		TTL:    deps.Auth.Token.TTL,
		Issuer: deps.Auth.Token.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("build token issuer: %w", err)
	}

	// Allowlist entries expire with the tokens they track.
	tokens := redisadapter.NewTokenStore(deps.RedisClient, "", deps.Auth.Token.TTL)

	return service.NewAccountService(service.AccountServiceOptions{
		Accounts: deps.Accounts,
		Issuer:   issuer,
		Tokens:   tokens,
		Lockout: data.LockoutPolicy{
			MaxAttempts: deps.Auth.Lockout.MaxAttempts,
			Duration:    deps.Auth.Lockout.Duration,
		},
		Logger: deps.Logger,
	})
}

// BuildIdentityProvider creates the SSO provider when AUTH_MODE=oidc.
// Returns nil when SSO is not configured or configuration is incomplete;
// the password flow keeps working either way.
//
//nolint:ireturn // the provider is consumed through its port.
func BuildIdentityProvider(cfg config.AuthConfig, logger *slog.Logger) ports.IdentityProvider {
	if cfg.Mode != config.AuthModeOIDC {
		return nil
	}

	oc := cfg.OIDC
	if oc.DiscoveryURL == "" || oc.ClientID == "" || oc.ClientSecret == "" {
		if logger != nil {
			logger.Warn("AUTH_MODE=oidc but required config missing; SSO disabled",
				"discovery_url_empty", oc.DiscoveryURL == "",
				"client_id_empty", oc.ClientID == "",
				"client_secret_empty", oc.ClientSecret == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(oidc.Config{
		ClientID:     oc.ClientID,
		ClientSecret: oc.ClientSecret,
		RedirectURL:  oc.RedirectURL,
		Scope:        oc.Scope,
		DiscoveryURL: oc.DiscoveryURL,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("failed to create OIDC provider, SSO disabled", "error", err)
		}
		return nil
	}

	return prov
}
