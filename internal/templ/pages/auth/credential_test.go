package auth

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, data CredentialPageData, signup bool) string {
	t.Helper()
	var buf bytes.Buffer
	page := LoginPage(data)
	if signup {
		page = SignupPage(data)
	}
	require.NoError(t, page.Render(context.Background(), &buf))
	return buf.String()
}

func TestInputClass_InvalidOverridesBorder(t *testing.T) {
	assert.Equal(t, inputBase, InputClass(false))

	got := InputClass(true)
	assert.Contains(t, got, "border-red-400/40")
	assert.Contains(t, got, "focus:border-red-400/60")
	assert.NotContains(t, got, "border-white/10")
	assert.NotContains(t, got, "focus:border-white/20")
}

func TestLoginPage_PendingEmailDisablesEverything(t *testing.T) {
	html := render(t, CredentialPageData{
		Pending:     true,
		PendingKind: PendingEmail,
		Providers:   []ProviderOption{{ID: "google", Label: "Google", PendingKind: PendingOAuthGoogle}},
	}, false)

	assert.Contains(t, html, ">Signing in…</button>")
	assert.Contains(t, html, ">Google<")
	assert.Equal(t, 2, strings.Count(html, " disabled>"))
}

func TestSignupPage_PendingProviderShowsConnecting(t *testing.T) {
	html := render(t, CredentialPageData{
		Pending:     true,
		PendingKind: PendingOAuthGitHub,
		Providers: []ProviderOption{
			{ID: "google", Label: "Google", PendingKind: PendingOAuthGoogle},
			{ID: "github", Label: "GitHub", PendingKind: PendingOAuthGitHub},
		},
	}, true)

	assert.Contains(t, html, ">Google<")
	assert.Contains(t, html, ">Connecting…</span>")
	assert.NotContains(t, html, ">GitHub<")
	assert.Contains(t, html, ">Create account</button>")
}

func TestLoginPage_FieldErrorsAndEscaping(t *testing.T) {
	html := render(t, CredentialPageData{
		Form:   FormData{Email: `"><script>`},
		Errors: map[string]string{"email": "Invalid email address"},
	}, false)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `aria-describedby="email-error"`)
	assert.Contains(t, html, "Invalid email address")
	assert.Contains(t, html, `id="password-error" hidden`)
}
