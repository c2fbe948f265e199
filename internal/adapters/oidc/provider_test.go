package oidc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIdP serves a minimal OIDC discovery document.
func fakeIdP(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/.well-known/openid-configuration":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"issuer":                 srv.URL,
				"authorization_endpoint": srv.URL + "/authorize",
				"token_endpoint":         srv.URL + "/token",
				"jwks_uri":               srv.URL + "/keys",
				"userinfo_endpoint":      srv.URL + "/userinfo",
			})
		case "/keys":
			_ = json.NewEncoder(w).Encode(map[string]any{"keys": []any{}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	srv := fakeIdP(t)
	p, err := NewProvider(Config{
		ClientID:     "taponn",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/api/v1/auth/sso/callback",
		DiscoveryURL: srv.URL + "/.well-known/openid-configuration",
	})
	require.NoError(t, err)
	return p
}

func TestNewProviderValidation(t *testing.T) {
	_, err := NewProvider(Config{ClientSecret: "s", DiscoveryURL: "http://x"})
	require.Error(t, err)

	_, err = NewProvider(Config{ClientID: "c", DiscoveryURL: "http://x"})
	require.Error(t, err)

	_, err = NewProvider(Config{ClientID: "c", ClientSecret: "s"})
	require.Error(t, err)
}

func TestBeginProducesAuthURLWithStateAndNonce(t *testing.T) {
	p := newTestProvider(t)

	authURL, state, nonce, err := p.Begin(t.Context(), "http://localhost:8080/cb")
	require.NoError(t, err)
	require.NotEmpty(t, state)
	require.NotEmpty(t, nonce)
	assert.NotEqual(t, state, nonce)
	assert.Len(t, state, 32)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, state, q.Get("state"))
	assert.Equal(t, nonce, q.Get("nonce"))
	assert.Equal(t, "taponn", q.Get("client_id"))
	assert.Contains(t, q.Get("scope"), "openid")
}

func TestBeginGeneratesFreshStatePerCall(t *testing.T) {
	p := newTestProvider(t)

	_, state1, nonce1, err := p.Begin(t.Context(), "http://localhost/cb")
	require.NoError(t, err)
	_, state2, nonce2, err := p.Begin(t.Context(), "http://localhost/cb")
	require.NoError(t, err)

	assert.NotEqual(t, state1, state2)
	assert.NotEqual(t, nonce1, nonce2)
}

func TestExchangeRequiresCode(t *testing.T) {
	p := newTestProvider(t)

	_, err := p.Exchange(t.Context(), "", "nonce")
	require.Error(t, err)
}

func TestDisplayNamePrecedence(t *testing.T) {
	assert.Equal(t, "Jane Roe", idClaims{Name: "Jane Roe", GivenName: "J", FamilyName: "R"}.displayName())
	assert.Equal(t, "Jane Roe", idClaims{GivenName: "Jane", FamilyName: "Roe"}.displayName())
	assert.Equal(t, "Jane", idClaims{GivenName: "Jane"}.displayName())
	assert.Empty(t, idClaims{}.displayName())
}

func TestRandomTokenLength(t *testing.T) {
	s, err := randomToken(32)
	require.NoError(t, err)
	assert.Len(t, s, 32)
}
