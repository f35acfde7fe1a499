package csrf

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	b, _ := GenerateToken()

	if len(a) != 44 {
		t.Errorf("token length = %d, want 44", len(a))
	}
	if a == b {
		t.Error("expected distinct tokens")
	}
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		form   string
		want   bool
	}{
		{"match", "abc", "abc", true},
		{"mismatch", "abc", "abd", false},
		{"empty cookie", "", "abc", false},
		{"empty form", "abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateToken(tt.cookie, tt.form); got != tt.want {
				t.Errorf("ValidateToken() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnsureToken(t *testing.T) {
	t.Run("reuses existing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "existing"})
		rr := httptest.NewRecorder()

		if got := EnsureToken(rr, req, false); got != "existing" {
			t.Errorf("EnsureToken() = %q, want existing", got)
		}
		if len(rr.Result().Cookies()) != 0 {
			t.Error("expected no new cookie")
		}
	})

	t.Run("sets new cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		rr := httptest.NewRecorder()

		token := EnsureToken(rr, req, true)

		cookies := rr.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("expected 1 cookie, got %d", len(cookies))
		}
		if cookies[0].Value != token || !cookies[0].Secure {
			t.Errorf("unexpected cookie %+v", cookies[0])
		}
	})
}

func TestProtect(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	reject := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	h := Protect(reject)(next)

	tests := []struct {
		name   string
		method string
		cookie string
		form   string
		header string
		want   int
	}{
		{"get passes", http.MethodGet, "", "", "", http.StatusNoContent},
		{"post with matching form field", http.MethodPost, "tok", "tok", "", http.StatusNoContent},
		{"post with matching header", http.MethodPost, "tok", "", "tok", http.StatusNoContent},
		{"post without cookie", http.MethodPost, "", "tok", "", http.StatusForbidden},
		{"post with wrong token", http.MethodPost, "tok", "other", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			if tt.form != "" {
				form.Set(FormFieldName, tt.form)
			}
			req := httptest.NewRequest(tt.method, "/login", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(HeaderName, tt.header)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
