package httpx

import (
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	apperrors "github.com/taponn/taponn-api/internal/errors"
	"github.com/taponn/taponn-api/internal/ports"
	"github.com/taponn/taponn-api/internal/service"
)

const ssoStateCookie = "sso_state"
const ssoNonceCookie = "sso_nonce"

// AuthHandlers serves the /api/v1/auth endpoint group.
type AuthHandlers struct {
	Svc *service.AccountService
	// IdP enables the SSO begin/callback routes when set.
	IdP         ports.IdentityProvider
	RedirectURL string
	Logger      *slog.Logger
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds domainauth.Credentials
	if !DecodeJSON(w, r, &creds) {
		return
	}
	res, err := h.Svc.Login(r.Context(), creds)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	writeAuthResult(w, http.StatusOK, res)
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var reg domainauth.Registration
	if !DecodeJSON(w, r, &reg) {
		return
	}
	res, err := h.Svc.Register(r.Context(), reg)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	writeAuthResult(w, http.StatusCreated, res)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": principal.Account.User()})
}

// UpdateDetails handles PUT /api/v1/auth/update-details. Unset fields in
// the patch are left unchanged; the response carries the full record.
func (h *AuthHandlers) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var patch domainauth.AccountUpdate
	if !DecodeJSON(w, r, &patch) {
		return
	}
	acct, err := h.Svc.UpdateDetails(r.Context(), principal.Account.ID, patch)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": acct.User()})
}

// Logout handles POST /api/v1/auth/logout by revoking the presented token.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Logout(r.Context(), principal.JTI); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}

// BeginSSO handles GET /api/v1/auth/sso: it stashes the flow state in
// short-lived cookies and redirects to the identity provider.
func (h *AuthHandlers) BeginSSO(w http.ResponseWriter, r *http.Request) {
	authURL, state, nonce, err := h.IdP.Begin(r.Context(), h.RedirectURL)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	for name, value := range map[string]string{ssoStateCookie: state, ssoNonceCookie: nonce} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/api/v1/auth/sso",
			MaxAge:   int((10 * time.Minute).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// CompleteSSO handles GET /api/v1/auth/sso/callback.
func (h *AuthHandlers) CompleteSSO(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(ssoStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		WriteAppError(w, apperrors.Unauthorized("SSO state mismatch"))
		return
	}
	nonceCookie, err := r.Cookie(ssoNonceCookie)
	if err != nil || nonceCookie.Value == "" {
		WriteAppError(w, apperrors.Unauthorized("SSO flow expired"))
		return
	}

	identity, err := h.IdP.Exchange(r.Context(), r.URL.Query().Get("code"), nonceCookie.Value)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WarnContext(r.Context(), "sso exchange failed", "error", err)
		}
		WriteAppError(w, apperrors.Unauthorized("SSO sign-in failed"))
		return
	}

	res, err := h.Svc.LoginSSO(r.Context(), identity)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	writeAuthResult(w, http.StatusOK, res)
}

func writeAuthResult(w http.ResponseWriter, code int, res *service.LoginResult) {
	WriteJSON(w, code, map[string]any{
		"token": res.Token,
		"user":  res.Account.User(),
	})
}
