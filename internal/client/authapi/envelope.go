package authapi

import (
	"encoding/json"

	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	apperrors "github.com/taponn/taponn-api/internal/errors"
)

// userPayload mirrors the wire shape of a user record.
type userPayload struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// envelope tolerates the three response shapes the auth service has
// shipped over time: a "user" field, a "data" field, or the user record
// spread across the top level.
type envelope struct {
	Token   string          `json:"token"`
	Message string          `json:"message"`
	User    json.RawMessage `json:"user"`
	Data    json.RawMessage `json:"data"`

	userPayload
}

func (p userPayload) toDomain() domainauth.User {
	u := domainauth.User{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Role:        domainauth.Role(p.Role),
		Permissions: p.Permissions,
	}
	if u.Role == "" && u.Email != "" {
		u.Role = domainauth.DeriveRole(u.Email)
	}
	if len(u.Permissions) == 0 && u.Role != "" {
		u.Permissions = domainauth.DefaultPermissions(u.Role)
	}
	return u
}

// extractUser decodes a response body and resolves the user record with
// fixed precedence: "user" wins over "data", which wins over bare
// top-level fields. A body whose winning shape lacks an email is treated
// as carrying no user at all.
func extractUser(body []byte) (domainauth.User, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domainauth.User{}, apperrors.Wrap(err, apperrors.ErrCodeInvalidResponse, "The server returned an unreadable response.")
	}

	for _, raw := range []json.RawMessage{env.User, env.Data} {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var p userPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return domainauth.User{}, apperrors.Wrap(err, apperrors.ErrCodeInvalidResponse, "The server returned a malformed user record.")
		}
		if u := p.toDomain(); u.Valid() {
			return u, nil
		}
	}

	if u := env.userPayload.toDomain(); u.Valid() {
		return u, nil
	}

	return domainauth.User{}, apperrors.InvalidResponse("The server response did not include a user record.")
}

// extractToken pulls the bearer token out of a response body.
func extractToken(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Token
}

// extractMessage pulls the service-supplied error message, if any.
func extractMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Message != "" {
		return env.Message
	}
	return env.Error
}
