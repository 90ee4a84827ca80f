// Package httpx provides the HTTP surface for the portal: auth flow
// endpoints, the current-user API, the admin audit listing, and the
// per-session auth state event stream.
package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
	"github.com/oakmont/portal-api/internal/state"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth         AuthServiceInterface
	Mail         MailSender
	SignIns      SignInEventLister
	States       *state.Registry
	CookieDomain string
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		Logger:       services.Logger,
	}
	registerAuthRoutes(mux, authHandlers)

	if services.States != nil {
		eventHandlers := &EventHandlers{States: services.States, Logger: services.Logger}
		mux.Handle("GET /auth/events",
			RequireAuth(services.Auth)(http.HandlerFunc(eventHandlers.Stream)))
	}

	meHandlers := &MeHandlers{}
	mux.Handle("GET /api/me",
		RequireAuth(services.Auth)(http.HandlerFunc(meHandlers.Me)))

	if services.Mail != nil {
		mailHandlers := &MailHandlers{Svc: services.Mail}
		mux.Handle("POST /api/notifications/email",
			RequirePermission(services.Auth, domainauth.PermSendEmails)(http.HandlerFunc(mailHandlers.SendEmail)))
	}

	if services.SignIns != nil {
		adminHandlers := &AdminHandlers{SignIns: services.SignIns}
		mux.Handle("GET /api/admin/signins",
			RequirePermission(services.Auth, domainauth.PermManageUsers)(http.HandlerFunc(adminHandlers.ListSignIns)))
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.HandleFunc("POST /auth/refresh", h.Refresh)
}
