package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/DukeRupert/eduauth/internal/auth"
)

// =============================================================================
// Request Logging Middleware Tests
// =============================================================================

// serveLogged runs req through the logging middleware and returns the log output.
func serveLogged(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	if req.RemoteAddr == "" {
		req.RemoteAddr = "192.168.1.1:12345"
	}
	rec := httptest.NewRecorder()
	mw.Handler(h).ServeHTTP(rec, req)
	return rec, buf.String()
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestLoggingMiddleware_LogsBasicInfo(t *testing.T) {
	_, logOutput := serveLogged(t, okHandler(), httptest.NewRequest("GET", "/login", nil))

	for _, want := range []string{"GET", "/login", "200", "duration", "request_id="} {
		if !strings.Contains(logOutput, want) {
			t.Errorf("log should contain %q, got: %s", want, logOutput)
		}
	}
}

func TestRequestLoggingMiddleware_LogsClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/login", nil)
	req.RemoteAddr = "10.0.0.1:8080"
	req.Header.Set("X-Forwarded-For", "203.0.113.195")

	_, logOutput := serveLogged(t, okHandler(), req)

	if !strings.Contains(logOutput, "203.0.113.195") {
		t.Errorf("log should contain client IP from X-Forwarded-For, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_LogsErrorStatusAtWarn(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, logOutput := serveLogged(t, h, httptest.NewRequest("POST", "/login", nil))

	if !strings.Contains(logOutput, "502") {
		t.Errorf("log should contain 502 status, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, "level=WARN") {
		t.Errorf("5xx should log at WARN level, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_RedactsOAuthCallbackParams(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/auth/callback/google?code=4%2F0Abc&state=s3cr3t&scope=email", nil)

	_, logOutput := serveLogged(t, okHandler(), req)

	for _, leaked := range []string{"4%2F0Abc", "s3cr3t"} {
		if strings.Contains(logOutput, leaked) {
			t.Errorf("log should NOT contain %q, got: %s", leaked, logOutput)
		}
	}
	if !strings.Contains(logOutput, "scope=email") {
		t.Errorf("non-sensitive params should be kept, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_RedactsVerificationToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/verify-email?token=abc123secret", nil)

	_, logOutput := serveLogged(t, okHandler(), req)

	if strings.Contains(logOutput, "abc123secret") {
		t.Errorf("log should NOT contain verification token, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, "/verify-email") {
		t.Errorf("log should contain path, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_PassesRequestThrough(t *testing.T) {
	handlerCalled := false
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.Header().Set("X-Custom", "value")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("response body"))
	})

	rec, _ := serveLogged(t, h, httptest.NewRequest("POST", "/signup", nil))

	if !handlerCalled {
		t.Error("handler should have been called")
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if rec.Header().Get("X-Custom") != "value" {
		t.Error("custom header should be preserved")
	}
	if rec.Body.String() != "response body" {
		t.Errorf("response body should be preserved, got: %s", rec.Body.String())
	}
}

func TestRequestLoggingMiddleware_AssignsRequestID(t *testing.T) {
	var seen string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.RequestID(r.Context())
	})

	rec, logOutput := serveLogged(t, h, httptest.NewRequest("GET", "/login", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request ID %q is not a uuid: %v", seen, err)
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("%s header = %q, want %q", RequestIDHeader, got, seen)
	}
	if !strings.Contains(logOutput, seen) {
		t.Errorf("log should contain request ID, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	incoming := uuid.NewString()
	req := httptest.NewRequest("GET", "/login", nil)
	req.Header.Set(RequestIDHeader, incoming)

	rec, _ := serveLogged(t, okHandler(), req)

	if got := rec.Header().Get(RequestIDHeader); got != incoming {
		t.Errorf("%s header = %q, want %q", RequestIDHeader, got, incoming)
	}
}

func TestRequestLoggingMiddleware_ReplacesMalformedRequestID(t *testing.T) {
	req := httptest.NewRequest("GET", "/login", nil)
	req.Header.Set(RequestIDHeader, "injected\nvalue")

	rec, _ := serveLogged(t, okHandler(), req)

	if got := rec.Header().Get(RequestIDHeader); got == "injected\nvalue" {
		t.Error("malformed request ID should be replaced")
	}
}

func TestRequestLoggingMiddleware_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics", "/static/js/auth.js"} {
		t.Run(path, func(t *testing.T) {
			rec, logOutput := serveLogged(t, okHandler(), httptest.NewRequest("GET", path, nil))

			if strings.Contains(logOutput, path) {
				t.Errorf("%s should not be logged, got: %s", path, logOutput)
			}
			if rec.Header().Get(RequestIDHeader) == "" {
				t.Error("skipped paths should still get a request ID")
			}
		})
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		path, query, want string
	}{
		{"/login", "", "/login"},
		{"/login", "return_to=%2Fdashboard", "/login?return_to=%2Fdashboard"},
		{"/verify-email", "Email=a%40b.co", "/verify-email?Email=[REDACTED]"},
		{"/cb", "novalue", "/cb"},
	}

	for _, tt := range tests {
		if got := sanitizePath(tt.path, tt.query); got != tt.want {
			t.Errorf("sanitizePath(%q, %q) = %q, want %q", tt.path, tt.query, got, tt.want)
		}
	}
}
