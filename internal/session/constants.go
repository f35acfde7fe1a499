// Package session provides cookie constants shared by the handler and
// middleware packages.
package session

import "time"

const (
	// VisitCookieName identifies a browser's visit to the auth pages. It keys
	// the credential form controller, so concurrent submissions from the same
	// visit share one in-flight guard.
	VisitCookieName = "eduauth_visit"

	// VisitCookieMaxAge matches the default visit TTL (30 minutes).
	VisitCookieMaxAge = 30 * 60

	// FlashCookieName carries a one-shot notification across a redirect.
	FlashCookieName = "eduauth_flash"

	// FlashCookieMaxAge bounds how long an unread flash survives.
	FlashCookieMaxAge = 60

	// CookiePath ensures the cookies are sent with all requests.
	CookiePath = "/"
)

// LookupTimeout bounds how long a request waits on the auth provider to
// resolve the current session.
const LookupTimeout = 5 * time.Second
