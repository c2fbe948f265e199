// Package authapi implements the HTTP client for the remote auth service.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	apperrors "github.com/taponn/taponn-api/internal/errors"
	"github.com/taponn/taponn-api/internal/ports"
)

const maxResponseBytes = 1 << 20

// Config carries the knobs for building a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Tokens     ports.CredentialStore
	TokenKey   string
	Logger     *slog.Logger
}

// Client talks to the auth service over HTTP. Login and Register are
// anonymous; Me and UpdateDetails attach the stored bearer token. A 401
// maps to an unauthorized error only on attached calls, so rejected
// credentials never masquerade as an expired session.
type Client struct {
	baseURL  string
	hc       *http.Client
	tokens   ports.CredentialStore
	tokenKey string
	logger   *slog.Logger
}

var _ ports.AuthAPI = (*Client)(nil)

// NewClient builds an auth service client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("authapi: base url is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("authapi: credential store is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokenKey := cfg.TokenKey
	if tokenKey == "" {
		tokenKey = "taponn-token"
	}

	return &Client{
		baseURL:  baseURL,
		hc:       hc,
		tokens:   cfg.Tokens,
		tokenKey: tokenKey,
		logger:   logger,
	}, nil
}

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, creds domainauth.Credentials) (ports.AuthResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", creds, false)
	if err != nil {
		return ports.AuthResult{}, err
	}
	return c.authResult(body)
}

// Register creates an account and returns the token and user record.
func (c *Client) Register(ctx context.Context, reg domainauth.Registration) (ports.AuthResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", reg, false)
	if err != nil {
		return ports.AuthResult{}, err
	}
	return c.authResult(body)
}

// Me fetches the account behind the stored token.
func (c *Client) Me(ctx context.Context) (domainauth.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, true)
	if err != nil {
		return domainauth.User{}, err
	}
	return extractUser(body)
}

// UpdateDetails applies a partial account patch and returns the full
// updated record.
func (c *Client) UpdateDetails(ctx context.Context, patch domainauth.AccountUpdate) (domainauth.User, error) {
	body, err := c.do(ctx, http.MethodPut, "/api/v1/auth/update-details", patch, true)
	if err != nil {
		return domainauth.User{}, err
	}
	return extractUser(body)
}

func (c *Client) authResult(body []byte) (ports.AuthResult, error) {
	user, err := extractUser(body)
	if err != nil {
		return ports.AuthResult{}, err
	}
	token := extractToken(body)
	if token == "" {
		return ports.AuthResult{}, apperrors.InvalidResponse("The server response did not include a token.")
	}
	return ports.AuthResult{Token: token, User: user}, nil
}

// do performs a request and returns the raw 2xx body. Network failures
// become transport errors; non-2xx statuses become coded remote errors.
func (c *Client) do(ctx context.Context, method, path string, payload any, attached bool) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not encode the request.")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not build the request.")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if attached {
		token, err := c.tokens.Get(c.tokenKey)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not read stored credentials.")
		}
		if token == "" {
			return nil, apperrors.Unauthorized("You are not logged in.")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, apperrors.Transport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Transport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("auth service request failed",
			"method", method, "path", path, "status", resp.StatusCode)
		return nil, remoteError(resp.StatusCode, body, attached)
	}

	return body, nil
}

// remoteError maps a non-2xx response to an AppError. On anonymous calls
// a 401 is a business rejection (bad credentials), not a session expiry,
// so it is downgraded to a client error.
func remoteError(status int, body []byte, attached bool) error {
	appErr := apperrors.FromStatus(status, extractMessage(body))
	if !attached && appErr.Code == apperrors.ErrCodeUnauthorized {
		appErr.Code = apperrors.ErrCodeClient
	}
	return appErr
}
