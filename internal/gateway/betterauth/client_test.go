package betterauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/eduauth/internal/gateway"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api/auth/", Origin: "http://localhost:8080"}, nil)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestSignInWithCredentials(t *testing.T) {
	var got signInEmailRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/sign-in/email", r.URL.Path)
		assert.Equal(t, "http://localhost:8080", r.Header.Get("Origin"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		http.SetCookie(w, &http.Cookie{Name: "better-auth.session_token", Value: "tok.sig", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]any{
			"redirect": false,
			"token":    "tok",
			"user":     map[string]any{"id": "u1", "name": "Ada", "email": "a@b.com", "emailVerified": true},
		})
	})

	sess, err := c.SignInWithCredentials(context.Background(), "a@b.com", "12345678", true)

	require.NoError(t, err)
	assert.Equal(t, signInEmailRequest{Email: "a@b.com", Password: "12345678", RememberMe: true}, got)
	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, "Ada", sess.User.Name)
	assert.True(t, sess.User.EmailVerified)
	require.Len(t, sess.Cookies, 1)
	assert.Equal(t, "better-auth.session_token", sess.Cookies[0].Name)
}

func TestSignInWithCredentials_ProviderError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		wantCode string
		wantMsg  string
	}{
		{
			name:     "flat body",
			status:   http.StatusUnauthorized,
			body:     map[string]string{"code": "INVALID_EMAIL_OR_PASSWORD", "message": "Invalid email or password"},
			wantCode: "INVALID_EMAIL_OR_PASSWORD",
			wantMsg:  "Invalid email or password",
		},
		{
			name:    "error envelope",
			status:  http.StatusUnauthorized,
			body:    map[string]any{"error": map[string]string{"message": "Invalid credentials"}},
			wantMsg: "Invalid credentials",
		},
		{
			name:   "no message",
			status: http.StatusInternalServerError,
			body:   map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := c.SignInWithCredentials(context.Background(), "a@b.com", "12345678", false)

			var gerr *gateway.Error
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, tt.status, gerr.Status)
			assert.Equal(t, tt.wantCode, gerr.Code)
			assert.Equal(t, tt.wantMsg, gerr.Message)
		})
	}
}

func TestSignUpWithCredentials(t *testing.T) {
	t.Run("session started", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/auth/sign-up/email", r.URL.Path)
			var body signUpEmailRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Ada", body.Name)
			writeJSON(w, http.StatusOK, map[string]any{
				"token": "tok",
				"user":  map[string]any{"id": "u1", "name": "Ada", "email": "a@b.com"},
			})
		})

		sess, err := c.SignUpWithCredentials(context.Background(), "Ada", "a@b.com", "12345678")
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, "u1", sess.User.ID)
	})

	t.Run("verification required", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"token": nil,
				"user":  map[string]any{"id": "u1", "name": "Ada", "email": "a@b.com"},
			})
		})

		sess, err := c.SignUpWithCredentials(context.Background(), "Ada", "a@b.com", "12345678")
		require.NoError(t, err)
		assert.Nil(t, sess)
	})

	t.Run("duplicate account", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"code": "USER_ALREADY_EXISTS", "message": "User already exists",
			})
		})

		_, err := c.SignUpWithCredentials(context.Background(), "Ada", "a@b.com", "12345678")
		assert.Equal(t, "User already exists", gateway.Message(err, "fallback"))
		assert.Equal(t, http.StatusUnprocessableEntity, gateway.Status(err))
	})
}

func TestBeginOAuthRedirect(t *testing.T) {
	var got socialRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/sign-in/social", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]any{"url": "https://accounts.google.com/o/oauth2/auth?x=1", "redirect": true})
	})

	url, err := c.BeginOAuthRedirect(context.Background(), gateway.Google, "http://localhost:8080/dashboard")

	require.NoError(t, err)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?x=1", url)
	assert.Equal(t, socialRequest{Provider: "google", CallbackURL: "http://localhost:8080/dashboard"}, got)
}

func TestBeginOAuthRedirect_MissingURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"redirect": false})
	})

	_, err := c.BeginOAuthRedirect(context.Background(), gateway.GitHub, "http://localhost:8080/dashboard")

	assert.Equal(t, "GitHub sign-in is unavailable", gateway.Message(err, ""))
}

func TestGetSession(t *testing.T) {
	cookies := []*http.Cookie{
		{Name: "better-auth.session_token", Value: "tok.sig"},
		{Name: "eduauth_csrf", Value: "secret"},
	}

	t.Run("forwards only auth cookies", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/auth/get-session", r.URL.Path)
			_, err := r.Cookie("eduauth_csrf")
			assert.ErrorIs(t, err, http.ErrNoCookie)
			ck, err := r.Cookie("better-auth.session_token")
			require.NoError(t, err)
			assert.Equal(t, "tok.sig", ck.Value)

			writeJSON(w, http.StatusOK, map[string]any{
				"session": map[string]any{"token": "tok", "expiresAt": "2026-12-01T00:00:00Z"},
				"user":    map[string]any{"id": "u1", "name": "Ada", "email": "a@b.com"},
			})
		})

		sess, err := c.GetSession(context.Background(), cookies)
		require.NoError(t, err)
		assert.Equal(t, "Ada", sess.User.Name)
		assert.Equal(t, 2026, sess.ExpiresAt.Year())
	})

	t.Run("null body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("null"))
		})

		_, err := c.GetSession(context.Background(), cookies)
		assert.ErrorIs(t, err, gateway.ErrNoSession)
	})

	t.Run("no auth cookies", func(t *testing.T) {
		called := false
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		_, err := c.GetSession(context.Background(), []*http.Cookie{{Name: "other", Value: "x"}})
		assert.ErrorIs(t, err, gateway.ErrNoSession)
		assert.False(t, called)
	})
}

func TestSignOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/sign-out", r.URL.Path)
		http.SetCookie(w, &http.Cookie{Name: "better-auth.session_token", Value: "", MaxAge: -1})
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})

	cleared, err := c.SignOut(context.Background(), []*http.Cookie{{Name: "better-auth.session_token", Value: "tok"}})

	require.NoError(t, err)
	require.Len(t, cleared, 1)
	assert.Equal(t, "better-auth.session_token", cleared[0].Name)
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: base}, nil)
	require.NoError(t, err)

	_, err = c.SignInWithCredentials(context.Background(), "a@b.com", "12345678", false)

	assert.True(t, errors.Is(err, gateway.ErrUnavailable))
	assert.Equal(t, 0, gateway.Status(err))
	assert.Equal(t, "fallback", gateway.Message(err, "fallback"))
}
