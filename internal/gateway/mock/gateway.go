// Package mock provides an in-memory auth provider for development and tests.
package mock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/DukeRupert/eduauth/internal/email"
	"github.com/DukeRupert/eduauth/internal/gateway"
)

// SessionCookieName matches better-auth's default so the rest of the app
// treats both gateways the same way.
const SessionCookieName = "better-auth.session_token"

// DefaultSessionTTL is the lifetime of a session when remember-me is set.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Config contains configuration for the mock gateway.
type Config struct {
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	// RequireEmailVerification makes sign-up return no session.
	RequireEmailVerification bool

	// Mailer receives the verification link when RequireEmailVerification
	// is set. VerifyURL is the link's base; the address is appended as the
	// email query parameter.
	Mailer    email.Mailer
	VerifyURL string

	SessionTTL time.Duration

	// BcryptCost defaults to bcrypt.DefaultCost. Tests use bcrypt.MinCost.
	BcryptCost int
}

type account struct {
	user gateway.User
	hash []byte
}

type session struct {
	userID    string
	expiresAt time.Time
}

// Gateway is an in-memory gateway.Client.
type Gateway struct {
	config Config
	logger *slog.Logger
	oauth  map[gateway.Provider]*oauth2.Config
	now    func() time.Time

	mu       sync.Mutex
	accounts map[string]*account // keyed by lower-cased email
	sessions map[string]*session // keyed by token

	// Configurable errors for testing
	SignInError error
	SignUpError error
	OAuthError  error

	// Call tracking for testing
	SignInCalls int
	SignUpCalls int
	OAuthCalls  int
}

var _ gateway.Client = (*Gateway)(nil)

// New creates a mock gateway. OAuth providers without client credentials
// are reported as not configured.
func New(config Config, logger *slog.Logger) *Gateway {
	if config.SessionTTL == 0 {
		config.SessionTTL = DefaultSessionTTL
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		config:   config,
		logger:   logger.With("component", "mock_gateway"),
		oauth:    make(map[gateway.Provider]*oauth2.Config),
		now:      time.Now,
		accounts: make(map[string]*account),
		sessions: make(map[string]*session),
	}

	if config.GoogleClientID != "" && config.GoogleClientSecret != "" {
		g.oauth[gateway.Google] = &oauth2.Config{
			ClientID:     config.GoogleClientID,
			ClientSecret: config.GoogleClientSecret,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		}
	}
	if config.GitHubClientID != "" && config.GitHubClientSecret != "" {
		g.oauth[gateway.GitHub] = &oauth2.Config{
			ClientID:     config.GitHubClientID,
			ClientSecret: config.GitHubClientSecret,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}
	}

	return g
}

// AddUser registers an account directly, bypassing sign-up.
func (g *Gateway) AddUser(name, email, password string) (gateway.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addUserLocked(name, email, password)
}

func (g *Gateway) addUserLocked(name, email, password string) (gateway.User, error) {
	key := strings.ToLower(email)
	if _, exists := g.accounts[key]; exists {
		return gateway.User{}, &gateway.Error{
			Status:  http.StatusUnprocessableEntity,
			Code:    "USER_ALREADY_EXISTS",
			Message: "User already exists",
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.config.BcryptCost)
	if err != nil {
		return gateway.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := gateway.User{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         key,
		EmailVerified: !g.config.RequireEmailVerification,
	}
	g.accounts[key] = &account{user: u, hash: hash}
	return u, nil
}

// SignInWithCredentials checks the password against the stored bcrypt hash.
func (g *Gateway) SignInWithCredentials(ctx context.Context, email, password string, rememberMe bool) (*gateway.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.SignInCalls++
	if g.SignInError != nil {
		return nil, g.SignInError
	}

	acct, ok := g.accounts[strings.ToLower(email)]
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return nil, &gateway.Error{
			Status:  http.StatusUnauthorized,
			Code:    "INVALID_EMAIL_OR_PASSWORD",
			Message: "Invalid email or password",
		}
	}
	if g.config.RequireEmailVerification && !acct.user.EmailVerified {
		return nil, &gateway.Error{
			Status:  http.StatusForbidden,
			Code:    "EMAIL_NOT_VERIFIED",
			Message: "Email not verified",
		}
	}

	return g.startSessionLocked(acct.user, rememberMe)
}

// SignUpWithCredentials creates an account. When email verification is
// required no session is started.
func (g *Gateway) SignUpWithCredentials(ctx context.Context, name, address, password string) (*gateway.Session, error) {
	g.mu.Lock()
	g.SignUpCalls++
	if g.SignUpError != nil {
		g.mu.Unlock()
		return nil, g.SignUpError
	}

	u, err := g.addUserLocked(name, address, password)
	if err != nil {
		g.mu.Unlock()
		return nil, err
	}
	g.logger.Info("mock account created", "user_id", u.ID)

	if !g.config.RequireEmailVerification {
		defer g.mu.Unlock()
		return g.startSessionLocked(u, true)
	}
	g.mu.Unlock()

	// The account exists either way; a failed send only means the link has
	// to be requested again.
	if g.config.Mailer != nil {
		link := g.config.VerifyURL + "?email=" + url.QueryEscape(u.Email)
		if err := g.config.Mailer.SendVerificationEmail(ctx, u.Email, u.DisplayName(), link); err != nil {
			g.logger.Warn("failed to send verification email", "user_id", u.ID, "error", err)
		}
	}
	return nil, nil
}

// BeginOAuthRedirect returns the provider's authorization URL built from the
// configured client credentials.
func (g *Gateway) BeginOAuthRedirect(ctx context.Context, provider gateway.Provider, callbackURL string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.OAuthCalls++
	if g.OAuthError != nil {
		return "", g.OAuthError
	}

	base, ok := g.oauth[provider]
	if !ok {
		return "", &gateway.Error{
			Status:  http.StatusNotFound,
			Code:    "PROVIDER_NOT_FOUND",
			Message: fmt.Sprintf("%s sign-in is not configured", provider.DisplayName()),
		}
	}

	cfg := *base
	cfg.RedirectURL = callbackURL

	state, err := newToken()
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// GetSession looks up the session named by the session cookie.
func (g *Gateway) GetSession(ctx context.Context, cookies []*http.Cookie) (*gateway.Session, error) {
	token := sessionToken(cookies)
	if token == "" {
		return nil, gateway.ErrNoSession
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[token]
	if !ok {
		return nil, gateway.ErrNoSession
	}
	if g.now().After(s.expiresAt) {
		delete(g.sessions, token)
		return nil, gateway.ErrNoSession
	}

	for _, acct := range g.accounts {
		if acct.user.ID == s.userID {
			return &gateway.Session{Token: token, ExpiresAt: s.expiresAt, User: acct.user}, nil
		}
	}
	return nil, gateway.ErrNoSession
}

// SignOut deletes the session and returns a cookie that clears it.
func (g *Gateway) SignOut(ctx context.Context, cookies []*http.Cookie) ([]*http.Cookie, error) {
	token := sessionToken(cookies)
	if token == "" {
		return nil, nil
	}

	g.mu.Lock()
	delete(g.sessions, token)
	g.mu.Unlock()

	return []*http.Cookie{{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}}, nil
}

// VerifyEmail marks an account verified. It stands in for the link a real
// provider would email.
func (g *Gateway) VerifyEmail(email string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	acct, ok := g.accounts[strings.ToLower(email)]
	if !ok {
		return false
	}
	acct.user.EmailVerified = true
	return true
}

// Reset clears all accounts, sessions, errors, and call counters.
func (g *Gateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.accounts = make(map[string]*account)
	g.sessions = make(map[string]*session)
	g.SignInError, g.SignUpError, g.OAuthError = nil, nil, nil
	g.SignInCalls, g.SignUpCalls, g.OAuthCalls = 0, 0, 0
}

func (g *Gateway) startSessionLocked(u gateway.User, rememberMe bool) (*gateway.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	expiresAt := g.now().Add(g.config.SessionTTL)
	g.sessions[token] = &session{userID: u.ID, expiresAt: expiresAt}

	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if rememberMe {
		cookie.Expires = expiresAt
	}

	return &gateway.Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      u,
		Cookies:   []*http.Cookie{cookie},
	}, nil
}

func sessionToken(cookies []*http.Cookie) string {
	for _, c := range cookies {
		if c.Name == SessionCookieName {
			return c.Value
		}
	}
	return ""
}

// newToken returns 32 random bytes, hex encoded.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
