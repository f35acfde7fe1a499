package middleware

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// DefaultFormActionOrigins are the OAuth authorization hosts a provider form
// may end up redirecting to. Browsers apply form-action to the redirect chain
// that follows a form submission.
var DefaultFormActionOrigins = []string{
	"https://accounts.google.com",
	"https://github.com",
}

// SecurityHeadersMiddleware adds HTTP security headers to all responses.
type SecurityHeadersMiddleware struct {
	isSecure bool // Whether to enable HTTPS-specific headers (true in production)
	csp      string
}

// NewSecurityHeadersMiddleware creates a new security headers middleware.
// Set isSecure to true in production to enable HSTS. formActions lists extra
// origins (or URLs, reduced to their origin) that forms may submit or
// redirect to, such as the auth service.
func NewSecurityHeadersMiddleware(isSecure bool, formActions ...string) *SecurityHeadersMiddleware {
	return &SecurityHeadersMiddleware{
		isSecure: isSecure,
		csp:      buildCSP(formActionOrigins(formActions)),
	}
}

// Handler returns middleware that sets security headers on all responses.
func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("X-XSS-Protection", "1; mode=block")

		if m.isSecure {
			// max-age=31536000 = 1 year
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		h.Set("Content-Security-Policy", m.csp)
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		next.ServeHTTP(w, r)
	})
}

// formActionOrigins reduces each entry to scheme://host and drops
// duplicates and anything unparsable.
func formActionOrigins(raw []string) []string {
	var origins []string
	for _, s := range raw {
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}
		origin := u.Scheme + "://" + u.Host
		if !slices.Contains(origins, origin) {
			origins = append(origins, origin)
		}
	}
	return origins
}

// buildCSP constructs the Content-Security-Policy header value.
func buildCSP(formActions []string) string {
	formAction := "form-action 'self'"
	if len(formActions) > 0 {
		formAction += " " + strings.Join(formActions, " ")
	}

	return "default-src 'self'; " +
		// Scripts: only the bundled auth.js
		"script-src 'self'; " +
		// Styles: self + unsafe-inline for utility classes applied inline
		"style-src 'self' 'unsafe-inline'; " +
		// Images: self + data URIs + HTTPS avatars from OAuth providers
		"img-src 'self' data: https:; " +
		"font-src 'self'; " +
		// Connect: self only (fetch submissions)
		"connect-src 'self'; " +
		"frame-ancestors 'none'; " +
		"base-uri 'self'; " +
		formAction
}
