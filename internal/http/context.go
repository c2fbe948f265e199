package httpx

import (
	"context"
	"net/http"

	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
)

// principalKey is an unexported context key type to avoid collisions.
type principalKey struct{}

// Principal is the authenticated caller attached to a request by the
// auth middleware: the account plus the jti of the presented token.
type Principal struct {
	Account *model.Account
	JTI     string
}

// SetPrincipal returns a child context carrying the principal.
func SetPrincipal(ctx context.Context, p *Principal) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal returns the principal from the context and whether one is present.
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// requirePrincipal fetches the request principal, writing a 401 and
// returning ok=false when the auth middleware did not attach one.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*Principal, bool) {
	p, ok := GetPrincipal(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Unauthorized("Not authorized to access this route"))
	}
	return p, ok
}
