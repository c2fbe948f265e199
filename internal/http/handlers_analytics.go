package httpx

import (
	"net/http"
	"time"

	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
	"github.com/taponn/taponn-api/internal/service"
)

// AnalyticsHandlers serves the /api/v1/analytics endpoint group.
type AnalyticsHandlers struct {
	Svc *service.AnalyticsService
}

// Record handles POST /api/v1/analytics/events. The event is always
// attributed to the authenticated user.
func (h *AnalyticsHandlers) Record(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.RecordEventRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.UserID = principal.Account.ID
	if err := req.Validate(); err != nil {
		WriteAppError(w, apperrors.Validation(err.Error()))
		return
	}
	event, err := h.Svc.Record(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"data": event})
}

// Summary handles GET /api/v1/analytics/summary. An optional since query
// parameter (RFC 3339) narrows the window; the default is 30 days.
func (h *AnalyticsHandlers) Summary(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteAppError(w, apperrors.ValidationField("since", "since must be an RFC 3339 timestamp"))
			return
		}
		since = parsed
	}
	limit := queryInt(r, "limit", 50)

	summary, err := h.Svc.Summary(r.Context(), principal.Account.ID, since, limit)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": summary})
}
