package httpx

import (
	"net/http"

	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
	"github.com/taponn/taponn-api/internal/service"
)

// ProfileHandlers serves the /api/v1/profiles endpoint group plus the
// public card lookup.
type ProfileHandlers struct {
	Svc *service.ProfileService
}

// Create handles POST /api/v1/profiles.
func (h *ProfileHandlers) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.CreateProfileRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.UserID = principal.Account.ID
	if err := req.Validate(); err != nil {
		WriteAppError(w, apperrors.Validation(err.Error()))
		return
	}
	profile, err := h.Svc.Create(r.Context(), principal.Account.ID, &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"data": profile})
}

// List handles GET /api/v1/profiles.
func (h *ProfileHandlers) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	profiles, err := h.Svc.List(r.Context(), principal.Account.ID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": profiles})
}

// Get handles GET /api/v1/profiles/{id}.
func (h *ProfileHandlers) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	profile, err := h.Svc.Get(r.Context(), principal.Account.ID, r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": profile})
}

// Update handles PUT /api/v1/profiles/{id}.
func (h *ProfileHandlers) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.UpdateProfileRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteAppError(w, apperrors.Validation(err.Error()))
		return
	}
	profile, err := h.Svc.Update(r.Context(), principal.Account.ID, r.PathValue("id"), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": profile})
}

// Delete handles DELETE /api/v1/profiles/{id}.
func (h *ProfileHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), principal.Account.ID, r.PathValue("id")); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": "Profile deleted"})
}

// GetPublic handles GET /api/v1/p/{username}: the unauthenticated lookup
// behind shared card links and QR codes.
func (h *ProfileHandlers) GetPublic(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Svc.GetPublic(r.Context(), r.PathValue("username"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": profile})
}
