package auth

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/DukeRupert/eduauth/internal/templ/layouts"
	"github.com/DukeRupert/eduauth/internal/templ/shared"
)

// VerifyEmailPage tells a new user to confirm their address before signing in.
func VerifyEmailPage(data VerifyEmailPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := shared.NewWriter(w)
		pw.Raw(`<div class="w-full max-w-md">`)
		pw.Component(ctx, layouts.Brand("Check your inbox", "One more step"))
		pw.Raw(`<div class="rounded-3xl border border-white/10 bg-white/5 p-6 shadow-2xl text-sm text-white/80">`)
		pw.Component(ctx, shared.FlashMessage(data.Flash))
		if data.Email != "" {
			pw.Raw(`<p>We sent a verification link to <strong>`)
			pw.Text(data.Email)
			pw.Raw(`</strong>.</p>`)
		} else {
			pw.Raw(`<p>We sent you a verification link.</p>`)
		}
		pw.Raw(`<p class="mt-3">Open it to activate your account, then sign in.</p>`,
			`<p class="mt-5 text-center text-xs text-white/55">`,
			`<a href="/login" class="text-white/80 hover:text-white">Back to sign in</a></p>`,
			`</div></div>`)
		return pw.Err()
	})
	return layouts.Base("Verify your email", body)
}
