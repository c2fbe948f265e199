package httpx

import (
	"net/http"
	"strconv"

	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
	"github.com/taponn/taponn-api/internal/service"
)

// OrderHandlers serves the /api/v1/orders endpoint group. Status and
// payment transitions are admin-only and registered behind RequireAdmin.
type OrderHandlers struct {
	Svc *service.OrderService
}

// Create handles POST /api/v1/orders.
func (h *OrderHandlers) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.CreateOrderRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.UserID = principal.Account.ID
	if err := req.Validate(); err != nil {
		WriteAppError(w, apperrors.Validation(err.Error()))
		return
	}
	order, err := h.Svc.Create(r.Context(), principal.Account.ID, &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"data": order})
}

// List handles GET /api/v1/orders with limit/offset pagination.
func (h *OrderHandlers) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	orders, err := h.Svc.List(r.Context(), principal.Account.ID, limit, offset)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": orders})
}

// Get handles GET /api/v1/orders/{id}.
func (h *OrderHandlers) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	order, err := h.Svc.Get(r.Context(), principal.Account.ID, r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": order})
}

// UpdateStatus handles PUT /api/v1/orders/{id}/status (admin only).
func (h *OrderHandlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status         model.OrderStatus `json:"status"`
		TrackingNumber *string           `json:"tracking_number,omitempty"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	order, err := h.Svc.UpdateStatus(r.Context(), r.PathValue("id"), req.Status, req.TrackingNumber)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": order})
}

// UpdatePayment handles PUT /api/v1/orders/{id}/payment (admin only).
func (h *OrderHandlers) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentStatus model.PaymentStatus `json:"payment_status"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	order, err := h.Svc.UpdatePaymentStatus(r.Context(), r.PathValue("id"), req.PaymentStatus)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": order})
}

// queryInt parses an integer query parameter, falling back on absence or
// garbage.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
