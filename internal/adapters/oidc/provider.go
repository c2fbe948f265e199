package oidc

// Package oidc implements single sign-on for the admin dashboard via an
// external OIDC identity provider. Used when AUTH_MODE=oidc; the regular
// email/password flow does not touch this package.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	"github.com/taponn/taponn-api/internal/ports"
	"golang.org/x/oauth2"
)

// Config holds the OIDC client settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	HTTPClient   *http.Client
}

// Provider drives the authorization-code flow against the configured IdP
// and maps the resulting identity onto a domain user.
type Provider struct {
	config   *oauth2.Config
	verifier *gooidc.IDTokenVerifier
	provider *gooidc.Provider
}

var _ ports.IdentityProvider = (*Provider)(nil)

// NewProvider discovers the IdP endpoints and builds a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("oidc: client id is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("oidc: client secret is required")
	}
	if cfg.DiscoveryURL == "" {
		return nil, errors.New("oidc: discovery url is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	// go-oidc expects the issuer, not the discovery document URL.
	issuer := strings.TrimSuffix(cfg.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc: discover provider: %w", err)
	}

	scope := cfg.Scope
	if scope == "" {
		scope = "openid profile email"
	}

	return &Provider{
		provider: op,
		verifier: op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       strings.Fields(scope),
			Endpoint:     op.Endpoint(),
		},
	}, nil
}

// Begin starts the login flow: returns the IdP auth URL plus the state
// and nonce the caller must hold for Exchange.
func (p *Provider) Begin(_ context.Context, redirectURL string) (string, string, string, error) {
	if redirectURL == "" && p.config.RedirectURL == "" {
		return "", "", "", errors.New("oidc: redirect url is required")
	}

	state, err := randomToken(32)
	if err != nil {
		return "", "", "", fmt.Errorf("oidc: generate state: %w", err)
	}
	nonce, err := randomToken(32)
	if err != nil {
		return "", "", "", fmt.Errorf("oidc: generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange completes the login flow: redeems the code, verifies the id
// token and its nonce, and maps the claims onto a domain user. SSO users
// get the admin defaults; the IdP is the dashboard's gatekeeper.
func (p *Provider) Exchange(ctx context.Context, code, nonce string) (domainauth.User, error) {
	if code == "" {
		return domainauth.User{}, errors.New("oidc: authorization code is required")
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("oidc: exchange code: %w", err)
	}

	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		return domainauth.User{}, errors.New("oidc: token response has no id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("oidc: verify id_token: %w", err)
	}

	var c idClaims
	if err := idToken.Claims(&c); err != nil {
		return domainauth.User{}, fmt.Errorf("oidc: parse id_token claims: %w", err)
	}
	if nonce != "" && c.Nonce != nonce {
		return domainauth.User{}, errors.New("oidc: nonce mismatch")
	}
	if c.Email == "" {
		return domainauth.User{}, errors.New("oidc: identity has no email")
	}

	return domainauth.User{
		ID:          c.Sub,
		Name:        c.displayName(),
		Email:       c.Email,
		Role:        domainauth.RoleAdmin,
		Permissions: domainauth.DefaultPermissions(domainauth.RoleAdmin),
	}, nil
}

type idClaims struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Nonce      string `json:"nonce"`
}

func (c idClaims) displayName() string {
	if c.Name != "" {
		return c.Name
	}
	full := strings.TrimSpace(c.GivenName + " " + c.FamilyName)
	return full
}

// randomToken returns a URL-safe random string of n characters.
func randomToken(n int) (string, error) {
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) > n {
		s = s[:n]
	}
	return s, nil
}
