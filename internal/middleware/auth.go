// Package middleware contains HTTP middleware for the eduauth server.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/DukeRupert/eduauth/internal/auth"
	"github.com/DukeRupert/eduauth/internal/gateway"
	"github.com/DukeRupert/eduauth/internal/handler"
	"github.com/DukeRupert/eduauth/internal/session"
)

// =============================================================================
// Auth Middleware Configuration
// =============================================================================

// AuthMiddleware resolves the auth provider's session for each request.
//
// The provider owns the session cookie; this middleware only forwards it and
// stores the resolved session in the request context.
type AuthMiddleware struct {
	sessions gateway.SessionStore
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(sessions gateway.SessionStore, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		logger:   logger,
	}
}

// =============================================================================
// WithSession Middleware
// =============================================================================

// WithSession loads the current session from the auth provider, if any, and
// continues to the next handler regardless of the outcome.
//
// A provider outage is logged and treated as signed out, so public pages keep
// working. Cookies the provider refreshes during the lookup are passed on to
// the browser.
//
// Flow:
//
//	Request -> WithSession -> Handler
//	           |
//	           +-> Forward request cookies to the provider
//	           +-> Set session in context (if valid)
//	           +-> Call next handler (always)
func (m *AuthMiddleware) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookies := r.Cookies()
		if len(cookies) == 0 || skipSessionLookup(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), session.LookupTimeout)
		sess, err := m.sessions.GetSession(ctx, cookies)
		cancel()
		if err != nil {
			if !errors.Is(err, gateway.ErrNoSession) {
				m.logger.Warn("session lookup failed",
					"error", err,
					"path", r.URL.Path,
					"request_id", auth.RequestID(r.Context()),
				)
			}
			next.ServeHTTP(w, r)
			return
		}

		for _, c := range sess.Cookies {
			http.SetCookie(w, c)
		}

		next.ServeHTTP(w, r.WithContext(auth.SetSession(r.Context(), sess)))
	})
}

// =============================================================================
// RequireUser Middleware
// =============================================================================

// RequireUser requires a signed-in user.
//
// HTML requests are redirected to /login with a return_to parameter; API
// requests get a 401 JSON body.
//
// IMPORTANT: This middleware must be used AFTER WithSession in the chain.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			if isAPIRequest(r) {
				handler.UnauthorizedResponse(w, r, m.logger)
				return
			}

			returnTo := r.URL.Path
			if r.URL.RawQuery != "" {
				returnTo += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, "/login?return_to="+url.QueryEscape(returnTo), http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RedirectIfSignedIn sends users who already have a session away from the
// sign-in and sign-up pages.
func (m *AuthMiddleware) RedirectIfSignedIn(target string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.GetUser(r.Context()) != nil && r.Method == http.MethodGet {
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

// skipSessionLookup reports paths that never need the signed-in user.
func skipSessionLookup(path string) bool {
	for _, prefix := range []string{"/static/", "/health", "/metrics"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// isAPIRequest determines if the request expects a JSON response.
func isAPIRequest(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(loggingMw, authMw.WithSession, authMw.RequireUser)
//	mux.Handle("GET /dashboard", stack(dashboardHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// Ensure middleware functions have correct signature
var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithSession
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireUser
)
