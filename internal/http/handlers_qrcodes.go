package httpx

import (
	"net/http"

	"github.com/taponn/taponn-api/internal/domain/model"
	"github.com/taponn/taponn-api/internal/service"
)

// QRCodeHandlers serves the /api/v1/qrcodes endpoint group plus the
// public scan endpoint.
type QRCodeHandlers struct {
	Svc *service.QRCodeService
}

// Create handles POST /api/v1/qrcodes.
func (h *QRCodeHandlers) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.CreateQRCodeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	// qr_data may be empty here: the service derives the public card URL
	// and the repository validates the rest.
	code, err := h.Svc.Create(r.Context(), principal.Account.ID, &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"data": code})
}

// List handles GET /api/v1/qrcodes.
func (h *QRCodeHandlers) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	codes, err := h.Svc.List(r.Context(), principal.Account.ID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": codes})
}

// Get handles GET /api/v1/qrcodes/{id}.
func (h *QRCodeHandlers) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	code, err := h.Svc.Get(r.Context(), principal.Account.ID, r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": code})
}

// SetActive handles PUT /api/v1/qrcodes/{id}/active.
func (h *QRCodeHandlers) SetActive(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	code, err := h.Svc.SetActive(r.Context(), principal.Account.ID, r.PathValue("id"), req.IsActive)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": code})
}

// Delete handles DELETE /api/v1/qrcodes/{id}.
func (h *QRCodeHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), principal.Account.ID, r.PathValue("id")); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": "QR code deleted"})
}

// Scan handles POST /api/v1/qrcodes/{id}/scan. The endpoint is public:
// the scanner is an anonymous visitor, not the card owner.
func (h *QRCodeHandlers) Scan(w http.ResponseWriter, r *http.Request) {
	code, err := h.Svc.Scan(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": code})
}
