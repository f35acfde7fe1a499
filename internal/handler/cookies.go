package handler

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/DukeRupert/eduauth/internal/session"
	"github.com/DukeRupert/eduauth/internal/templ/shared"
)

// =============================================================================
// Visit Cookie
// =============================================================================

// ensureVisit returns the visit ID from the request, issuing a new one when
// the cookie is missing or malformed.
func ensureVisit(w http.ResponseWriter, r *http.Request, isSecure bool) string {
	if cookie, err := r.Cookie(session.VisitCookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     session.VisitCookieName,
		Value:    id,
		Path:     session.CookiePath,
		MaxAge:   session.VisitCookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// =============================================================================
// Flash Cookie
// =============================================================================

// setFlash stores a one-shot message to show after the next redirect.
func setFlash(w http.ResponseWriter, flash shared.Flash, isSecure bool) {
	raw := string(flash.Type) + "|" + flash.Message
	http.SetCookie(w, &http.Cookie{
		Name:     session.FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(raw)),
		Path:     session.CookiePath,
		MaxAge:   session.FlashCookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie. Returns nil when absent or
// unreadable.
func popFlash(w http.ResponseWriter, r *http.Request, isSecure bool) *shared.Flash {
	cookie, err := r.Cookie(session.FlashCookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.FlashCookieName,
		Value:    "",
		Path:     session.CookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})

	decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	typ, msg, ok := strings.Cut(string(decoded), "|")
	if !ok || msg == "" {
		return nil
	}
	switch t := shared.FlashType(typ); t {
	case shared.FlashSuccess, shared.FlashError, shared.FlashWarning, shared.FlashInfo:
		return &shared.Flash{Type: t, Message: msg}
	default:
		return nil
	}
}

// =============================================================================
// Provider Cookies
// =============================================================================

// forwardCookies copies the auth provider's Set-Cookie values to the browser
// unchanged.
func forwardCookies(w http.ResponseWriter, cookies []*http.Cookie) {
	for _, c := range cookies {
		http.SetCookie(w, c)
	}
}
