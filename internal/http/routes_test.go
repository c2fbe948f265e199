package httpx

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
)

func TestAuthRoutesLifecycle(t *testing.T) {
	h := newAPIHarness(t)

	// Register issues a usable token.
	status, body := h.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Jane Roe", "email": "jane@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)
	token := body["token"].(string)
	user := body["user"].(map[string]any)
	assert.Equal(t, "jane@x.com", user["email"])
	assert.Equal(t, "user", user["role"])

	// Me resolves the bearer token.
	status, body = h.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "jane@x.com", body["user"].(map[string]any)["email"])

	// Update details is a partial patch.
	status, body = h.do(t, http.MethodPut, "/api/v1/auth/update-details", token, map[string]any{
		"name": "Jane R.",
	})
	require.Equal(t, http.StatusOK, status)
	updated := body["user"].(map[string]any)
	assert.Equal(t, "Jane R.", updated["name"])
	assert.Equal(t, "jane@x.com", updated["email"], "unset fields survive")

	// Logout revokes the token; it stops working immediately.
	status, body = h.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", body["message"])

	status, _ = h.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthRoutesLoginFailures(t *testing.T) {
	h := newAPIHarness(t)
	h.register(t, "jane@x.com")

	status, body := h.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "jane@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", body["message"])

	status, body = h.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "ghost@x.com", "password": "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", body["message"], "unknown emails are indistinguishable")
}

func TestAuthRoutesDuplicateRegister(t *testing.T) {
	h := newAPIHarness(t)
	h.register(t, "jane@x.com")

	status, _ := h.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Other", "email": "jane@x.com", "password": "secret2",
	})
	assert.Equal(t, http.StatusConflict, status)
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	h := newAPIHarness(t)

	for _, path := range []string{"/api/v1/auth/me", "/api/v1/profiles", "/api/v1/qrcodes", "/api/v1/orders"} {
		status, _ := h.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}

	status, _ := h.do(t, http.MethodGet, "/api/v1/auth/me", "tok.bogus.jti-unknown", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProfileRoutes(t *testing.T) {
	h := newAPIHarness(t)
	token := h.register(t, "jane@x.com")

	status, body := h.do(t, http.MethodPost, "/api/v1/profiles", token, map[string]any{
		"display_name": "Jane Roe",
		"username":     "jane.roe",
		"bio":          "Digital card",
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)
	profile := body["data"].(map[string]any)
	profileID := profile["id"].(string)

	// Public lookup works without auth.
	status, body = h.do(t, http.MethodGet, "/api/v1/p/jane.roe", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Jane Roe", body["data"].(map[string]any)["display_name"])

	// Another user cannot see it by id.
	otherToken := h.register(t, "other@x.com")
	status, _ = h.do(t, http.MethodGet, "/api/v1/profiles/"+profileID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Hiding the profile removes the public lookup.
	status, _ = h.do(t, http.MethodPut, "/api/v1/profiles/"+profileID, token, map[string]any{
		"is_public": false,
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = h.do(t, http.MethodGet, "/api/v1/p/jane.roe", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Invalid usernames are rejected before they reach storage.
	status, _ = h.do(t, http.MethodPost, "/api/v1/profiles", token, map[string]any{
		"display_name": "Bad", "username": "-starts-with-dash",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestQRCodeRoutesScanFlow(t *testing.T) {
	h := newAPIHarness(t)
	token := h.register(t, "jane@x.com")

	status, body := h.do(t, http.MethodPost, "/api/v1/profiles", token, map[string]any{
		"display_name": "Jane", "username": "jane",
	})
	require.Equal(t, http.StatusCreated, status)
	profileID := body["data"].(map[string]any)["id"].(string)

	status, body = h.do(t, http.MethodPost, "/api/v1/qrcodes", token, map[string]any{
		"profile_id": profileID,
		"name":       "My Card",
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)
	code := body["data"].(map[string]any)
	codeID := code["id"].(string)
	assert.True(t, strings.HasSuffix(code["qr_data"].(string), "/p/jane"),
		"qr_data derives from the card username")

	// Scans are anonymous and increment the counter.
	status, body = h.do(t, http.MethodPost, "/api/v1/qrcodes/"+codeID+"/scan", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["data"].(map[string]any)["scan_count"])

	// The scan left an engagement event behind.
	counts, err := h.analytics.CountByType(t.Context(), accountIDOf(t, h, "jane@x.com"), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["qr_scan"])

	// Deactivated codes stop scanning.
	status, _ = h.do(t, http.MethodPut, "/api/v1/qrcodes/"+codeID+"/active", token, map[string]any{
		"is_active": false,
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = h.do(t, http.MethodPost, "/api/v1/qrcodes/"+codeID+"/scan", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestOrderRoutes(t *testing.T) {
	h := newAPIHarness(t)
	token := h.register(t, "jane@x.com")

	status, body := h.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{
		"product_type": "nfc_card",
		"quantity":     2,
		"total_amount": "49.98",
		"shipping_address": map[string]any{
			"line1": "1 Main St", "city": "Pune", "country": "IN",
		},
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)
	order := body["data"].(map[string]any)
	orderID := order["id"].(string)
	assert.Regexp(t, `^TAP-\d{8}-\d{6}$`, order["order_number"])
	assert.Equal(t, "pending", order["status"])

	// Status transitions are admin-only.
	status, _ = h.do(t, http.MethodPut, "/api/v1/orders/"+orderID+"/status", token, map[string]any{
		"status": "shipped",
	})
	assert.Equal(t, http.StatusForbidden, status)

	adminToken := h.registerAdmin(t, "admin@x.com")
	status, body = h.do(t, http.MethodPut, "/api/v1/orders/"+orderID+"/status", adminToken, map[string]any{
		"status": "shipped", "tracking_number": "TRK-42",
	})
	require.Equal(t, http.StatusOK, status, "%v", body)
	assert.Equal(t, "shipped", body["data"].(map[string]any)["status"])

	// Owners see their orders; others do not.
	status, body = h.do(t, http.MethodGet, "/api/v1/orders/"+orderID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "TRK-42", body["data"].(map[string]any)["tracking_number"])

	status, _ = h.do(t, http.MethodGet, "/api/v1/orders/"+orderID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAnalyticsRoutes(t *testing.T) {
	h := newAPIHarness(t)
	token := h.register(t, "jane@x.com")

	status, body := h.do(t, http.MethodPost, "/api/v1/analytics/events", token, map[string]any{
		"event_type":   "profile_view",
		"event_action": "view",
		"metadata":     map[string]any{"referrer": "link"},
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)
	event := body["data"].(map[string]any)
	assert.Equal(t, "engagement", event["event_category"])

	status, body = h.do(t, http.MethodGet, "/api/v1/analytics/summary", token, nil)
	require.Equal(t, http.StatusOK, status)
	summary := body["data"].(map[string]any)
	assert.Equal(t, float64(1), summary["total_events"])

	status, _ = h.do(t, http.MethodGet, "/api/v1/analytics/summary?since=garbage", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealthRoute(t *testing.T) {
	h := newAPIHarness(t)
	status, body := h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

// registerAdmin provisions an account and promotes it to admin directly
// in the backing store.
func (h *apiHarness) registerAdmin(t *testing.T, email string) string {
	t.Helper()
	token := h.register(t, email)
	h.accounts.mu.Lock()
	for _, a := range h.accounts.byID {
		if a.Email == email {
			a.Role = domainauth.RoleAdmin
			a.Permissions = domainauth.DefaultPermissions(domainauth.RoleAdmin)
		}
	}
	h.accounts.mu.Unlock()
	return token
}

func accountIDOf(t *testing.T, h *apiHarness, email string) string {
	t.Helper()
	acct, err := h.accounts.GetByEmail(t.Context(), email)
	if err != nil {
		t.Fatalf("account %s not found", email)
	}
	return acct.ID
}
