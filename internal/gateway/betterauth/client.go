// Package betterauth implements gateway.Client against a better-auth server's
// HTTP API.
package betterauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/eduauth/internal/gateway"
)

const (
	// DefaultTimeout bounds each call to the auth server.
	DefaultTimeout = 10 * time.Second

	// DefaultCookiePrefix is better-auth's default cookie name prefix.
	DefaultCookiePrefix = "better-auth"

	// maxBodySize caps how much of a response is read.
	maxBodySize = 1 << 20
)

// Config contains configuration for the better-auth client.
type Config struct {
	// BaseURL is the auth API root, e.g. http://localhost:3000/api/auth.
	BaseURL string

	// Origin is sent as the Origin header. better-auth rejects
	// state-changing requests from origins it does not trust.
	Origin string

	// CookiePrefix selects which browser cookies are forwarded.
	CookiePrefix string

	RequestTimeout time.Duration
}

// Client talks to a better-auth server.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

var _ gateway.Client = (*Client)(nil)

// New creates a better-auth client.
func New(config Config, logger *slog.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("better-auth base URL is required")
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.CookiePrefix == "" {
		config.CookiePrefix = DefaultCookiePrefix
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.RequestTimeout,
			// Redirects from the auth server are returned to the caller, not followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger.With("component", "betterauth"),
	}, nil
}

// =============================================================================
// Wire types
// =============================================================================

type userBody struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Image         string `json:"image,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

func (u userBody) toUser() gateway.User {
	return gateway.User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Image:         u.Image,
		EmailVerified: u.EmailVerified,
	}
}

type signInEmailRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type signUpEmailRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is returned by sign-in and sign-up. Token is null on sign-up
// when email verification is required.
type tokenResponse struct {
	Token *string  `json:"token"`
	User  userBody `json:"user"`
}

type socialRequest struct {
	Provider    string `json:"provider"`
	CallbackURL string `json:"callbackURL"`
}

type socialResponse struct {
	URL      string `json:"url"`
	Redirect bool   `json:"redirect"`
}

type sessionResponse struct {
	Session struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	} `json:"session"`
	User userBody `json:"user"`
}

// errorResponse accepts both the flat {code, message} body and the
// {error: {code, message}} envelope some proxies wrap it in.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// gateway.Gateway
// =============================================================================

// SignInWithCredentials calls POST /sign-in/email.
func (c *Client) SignInWithCredentials(ctx context.Context, email, password string, rememberMe bool) (*gateway.Session, error) {
	body := signInEmailRequest{Email: email, Password: password, RememberMe: rememberMe}

	var out tokenResponse
	cookies, err := c.do(ctx, http.MethodPost, "/sign-in/email", body, nil, &out)
	if err != nil {
		return nil, err
	}

	sess := &gateway.Session{User: out.User.toUser(), Cookies: cookies}
	if out.Token != nil {
		sess.Token = *out.Token
	}
	return sess, nil
}

// SignUpWithCredentials calls POST /sign-up/email. A null token means the
// server requires email verification; it returns a nil Session.
func (c *Client) SignUpWithCredentials(ctx context.Context, name, email, password string) (*gateway.Session, error) {
	body := signUpEmailRequest{Name: name, Email: email, Password: password}

	var out tokenResponse
	cookies, err := c.do(ctx, http.MethodPost, "/sign-up/email", body, nil, &out)
	if err != nil {
		return nil, err
	}
	if out.Token == nil {
		return nil, nil
	}
	return &gateway.Session{Token: *out.Token, User: out.User.toUser(), Cookies: cookies}, nil
}

// BeginOAuthRedirect calls POST /sign-in/social and returns the provider's
// authorization URL.
func (c *Client) BeginOAuthRedirect(ctx context.Context, provider gateway.Provider, callbackURL string) (string, error) {
	body := socialRequest{Provider: string(provider), CallbackURL: callbackURL}

	var out socialResponse
	if _, err := c.do(ctx, http.MethodPost, "/sign-in/social", body, nil, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", &gateway.Error{
			Status:  http.StatusBadGateway,
			Message: fmt.Sprintf("%s sign-in is unavailable", provider.DisplayName()),
		}
	}
	return out.URL, nil
}

// =============================================================================
// gateway.SessionStore
// =============================================================================

// GetSession calls GET /get-session with the browser's auth cookies.
func (c *Client) GetSession(ctx context.Context, cookies []*http.Cookie) (*gateway.Session, error) {
	forwarded := c.authCookies(cookies)
	if len(forwarded) == 0 {
		return nil, gateway.ErrNoSession
	}

	var out *sessionResponse
	refreshed, err := c.do(ctx, http.MethodGet, "/get-session", nil, forwarded, &out)
	if err != nil {
		if gateway.Status(err) == http.StatusUnauthorized {
			return nil, gateway.ErrNoSession
		}
		return nil, err
	}
	if out == nil || out.User.ID == "" {
		return nil, gateway.ErrNoSession
	}

	return &gateway.Session{
		Token:     out.Session.Token,
		ExpiresAt: out.Session.ExpiresAt,
		User:      out.User.toUser(),
		Cookies:   refreshed,
	}, nil
}

// SignOut calls POST /sign-out and returns the cookies that clear the session.
func (c *Client) SignOut(ctx context.Context, cookies []*http.Cookie) ([]*http.Cookie, error) {
	forwarded := c.authCookies(cookies)
	if len(forwarded) == 0 {
		return nil, nil
	}
	return c.do(ctx, http.MethodPost, "/sign-out", struct{}{}, forwarded, nil)
}

// authCookies filters the browser cookies down to the auth server's own.
func (c *Client) authCookies(cookies []*http.Cookie) []*http.Cookie {
	var out []*http.Cookie
	for _, ck := range cookies {
		if strings.HasPrefix(ck.Name, c.config.CookiePrefix) ||
			strings.HasPrefix(ck.Name, "__Secure-"+c.config.CookiePrefix) {
			out = append(out, ck)
		}
	}
	return out
}

// =============================================================================
// Transport
// =============================================================================

// do executes one request. in is JSON-encoded when non-nil; out is decoded
// from a 2xx body when non-nil. The response's Set-Cookie headers are
// returned.
func (c *Client) do(ctx context.Context, method, path string, in any, cookies []*http.Cookie, out any) ([]*http.Cookie, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Origin != "" {
		req.Header.Set("Origin", c.config.Origin)
	}
	for _, ck := range cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("auth server unreachable", "path", path, "error", err)
		return nil, &gateway.Error{Err: errors.Join(gateway.ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &gateway.Error{Status: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}

	c.logger.Debug("auth server call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, mapHTTPError(resp.StatusCode, respBody)
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, &gateway.Error{Status: http.StatusBadGateway, Err: fmt.Errorf("unmarshal response: %w", err)}
		}
	}

	return resp.Cookies(), nil
}

// mapHTTPError converts an error response into a *gateway.Error carrying the
// server's message.
func mapHTTPError(statusCode int, body []byte) error {
	var errResp errorResponse
	_ = json.Unmarshal(body, &errResp)
	if errResp.Message == "" && errResp.Error != nil {
		errResp.Code, errResp.Message = errResp.Error.Code, errResp.Error.Message
	}

	gerr := &gateway.Error{
		Status:  statusCode,
		Code:    errResp.Code,
		Message: errResp.Message,
	}
	switch statusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		gerr.Err = gateway.ErrUnavailable
	}
	return gerr
}
