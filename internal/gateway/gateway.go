// Package gateway defines the contract between eduauth and the external
// authentication provider.
//
// Implementations:
//   - betterauth: HTTP client for a better-auth server
//   - mock: in-memory provider for development and tests
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider identifies an OAuth identity provider.
type Provider string

const (
	Google Provider = "google"
	GitHub Provider = "github"
)

// Providers lists the OAuth providers offered on the login and signup pages,
// in display order.
var Providers = []Provider{Google, GitHub}

// ParseProvider converts a route or form value into a Provider.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case Google, GitHub:
		return p, nil
	default:
		return "", fmt.Errorf("unknown oauth provider %q", s)
	}
}

// DisplayName returns the provider's brand name.
func (p Provider) DisplayName() string {
	switch p {
	case Google:
		return "Google"
	case GitHub:
		return "GitHub"
	default:
		return string(p)
	}
}

// User is the account as reported by the provider.
type User struct {
	ID            string
	Name          string
	Email         string
	Image         string
	EmailVerified bool
}

// DisplayName returns the user's name or email if name is empty.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Session is an authenticated provider session.
//
// Cookies holds the Set-Cookie values issued by the provider. They are
// forwarded to the browser unchanged; eduauth never interprets them.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      User
	Cookies   []*http.Cookie
}

// Gateway is the capability set the credential-form controller depends on.
type Gateway interface {
	// SignInWithCredentials authenticates an email/password pair.
	SignInWithCredentials(ctx context.Context, email, password string, rememberMe bool) (*Session, error)

	// SignUpWithCredentials creates an account. A nil Session with a nil
	// error means the provider requires email verification before sign-in.
	SignUpWithCredentials(ctx context.Context, name, email, password string) (*Session, error)

	// BeginOAuthRedirect returns the provider authorization URL the browser
	// must be sent to. callbackURL is where the provider returns the user.
	BeginOAuthRedirect(ctx context.Context, provider Provider, callbackURL string) (string, error)
}

// SessionStore reads and ends provider sessions from browser cookies.
type SessionStore interface {
	// GetSession returns ErrNoSession when the cookies carry no live session.
	GetSession(ctx context.Context, cookies []*http.Cookie) (*Session, error)

	// SignOut ends the session and returns cookies that clear it in the browser.
	SignOut(ctx context.Context, cookies []*http.Cookie) ([]*http.Cookie, error)
}

// Client is a full provider implementation.
type Client interface {
	Gateway
	SessionStore
}

var (
	// ErrNoSession indicates the request carries no valid provider session.
	ErrNoSession = errors.New("gateway: no active session")

	// ErrUnavailable indicates the provider could not be reached.
	ErrUnavailable = errors.New("gateway: auth provider unavailable")
)

// Error is a failure reported by the provider. Message is the provider's own
// text and is shown to the user verbatim.
type Error struct {
	Status  int    // HTTP status from the provider (0 when unreachable)
	Code    string // Provider error code, e.g. INVALID_EMAIL_OR_PASSWORD
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("gateway: %s (status %d): %s", e.Code, e.Status, msg)
	}
	return fmt.Sprintf("gateway: status %d: %s", e.Status, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message extracts the user-facing text from a provider failure, or returns
// fallback when the provider supplied none.
func Message(err error, fallback string) string {
	var ge *Error
	if errors.As(err, &ge) && strings.TrimSpace(ge.Message) != "" {
		return ge.Message
	}
	return fallback
}

// Status returns the provider HTTP status carried by err, or 0.
func Status(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Status
	}
	return 0
}
