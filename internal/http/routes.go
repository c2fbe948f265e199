package httpx

import (
	"log/slog"
	"net/http"

	"github.com/taponn/taponn-api/internal/ports"
	"github.com/taponn/taponn-api/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Accounts  *service.AccountService
	Profiles  *service.ProfileService
	QRCodes   *service.QRCodeService
	Orders    *service.OrderService
	Analytics *service.AnalyticsService

	// IdP enables the SSO routes when set (AUTH_MODE=oidc).
	IdP            ports.IdentityProvider
	SSORedirectURL string

	Logger *slog.Logger
}

// NewRouter builds the API route table and wraps it in the standard
// middleware chain.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	requireAuth := RequireAuth(services.Accounts)
	requireAdmin := RequireAdmin(services.Accounts)

	auth := &AuthHandlers{
		Svc:         services.Accounts,
		IdP:         services.IdP,
		RedirectURL: services.SSORedirectURL,
		Logger:      logger,
	}
	mux.HandleFunc("POST /api/v1/auth/login", auth.Login)
	mux.HandleFunc("POST /api/v1/auth/register", auth.Register)
	mux.Handle("GET /api/v1/auth/me", requireAuth(http.HandlerFunc(auth.Me)))
	mux.Handle("PUT /api/v1/auth/update-details", requireAuth(http.HandlerFunc(auth.UpdateDetails)))
	mux.Handle("POST /api/v1/auth/logout", requireAuth(http.HandlerFunc(auth.Logout)))
	if services.IdP != nil {
		mux.HandleFunc("GET /api/v1/auth/sso", auth.BeginSSO)
		mux.HandleFunc("GET /api/v1/auth/sso/callback", auth.CompleteSSO)
	}

	profiles := &ProfileHandlers{Svc: services.Profiles}
	mux.Handle("POST /api/v1/profiles", requireAuth(http.HandlerFunc(profiles.Create)))
	mux.Handle("GET /api/v1/profiles", requireAuth(http.HandlerFunc(profiles.List)))
	mux.Handle("GET /api/v1/profiles/{id}", requireAuth(http.HandlerFunc(profiles.Get)))
	mux.Handle("PUT /api/v1/profiles/{id}", requireAuth(http.HandlerFunc(profiles.Update)))
	mux.Handle("DELETE /api/v1/profiles/{id}", requireAuth(http.HandlerFunc(profiles.Delete)))
	mux.HandleFunc("GET /api/v1/p/{username}", profiles.GetPublic)

	qrcodes := &QRCodeHandlers{Svc: services.QRCodes}
	mux.Handle("POST /api/v1/qrcodes", requireAuth(http.HandlerFunc(qrcodes.Create)))
	mux.Handle("GET /api/v1/qrcodes", requireAuth(http.HandlerFunc(qrcodes.List)))
	mux.Handle("GET /api/v1/qrcodes/{id}", requireAuth(http.HandlerFunc(qrcodes.Get)))
	mux.Handle("PUT /api/v1/qrcodes/{id}/active", requireAuth(http.HandlerFunc(qrcodes.SetActive)))
	mux.Handle("DELETE /api/v1/qrcodes/{id}", requireAuth(http.HandlerFunc(qrcodes.Delete)))
	mux.HandleFunc("POST /api/v1/qrcodes/{id}/scan", qrcodes.Scan)

	orders := &OrderHandlers{Svc: services.Orders}
	mux.Handle("POST /api/v1/orders", requireAuth(http.HandlerFunc(orders.Create)))
	mux.Handle("GET /api/v1/orders", requireAuth(http.HandlerFunc(orders.List)))
	mux.Handle("GET /api/v1/orders/{id}", requireAuth(http.HandlerFunc(orders.Get)))
	mux.Handle("PUT /api/v1/orders/{id}/status", requireAdmin(http.HandlerFunc(orders.UpdateStatus)))
	mux.Handle("PUT /api/v1/orders/{id}/payment", requireAdmin(http.HandlerFunc(orders.UpdatePayment)))

	analytics := &AnalyticsHandlers{Svc: services.Analytics}
	mux.Handle("POST /api/v1/analytics/events", requireAuth(http.HandlerFunc(analytics.Record)))
	mux.Handle("GET /api/v1/analytics/summary", requireAuth(http.HandlerFunc(analytics.Summary)))

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
