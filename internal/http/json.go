// Package httpx provides the JSON API surface: handlers, middleware and
// routing for the auth, profile, QR, order and analytics endpoints.
package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/taponn/taponn-api/internal/errors"
)

// DecodeJSON decodes the request body into dst. On failure it writes a
// 400 response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "invalid_json",
			"message": "Request body is not valid JSON",
		})
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Client disconnects are not recoverable here.
		return
	}
}

// WriteAppError writes an error response whose status follows the error
// code and whose message is safe to show to end users.
func WriteAppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	message := "Something went wrong"
	if appErr := apperrors.AsAppError(err); appErr != nil && status < 500 {
		message = appErr.Message
	}
	WriteJSON(w, status, map[string]any{
		"error":   string(apperrors.GetCode(err)),
		"message": message,
	})
}
