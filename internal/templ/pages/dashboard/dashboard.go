// Package dashboard renders the signed-in landing page.
package dashboard

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/DukeRupert/eduauth/internal/templ/layouts"
	"github.com/DukeRupert/eduauth/internal/templ/shared"
)

// PageData contains data for the dashboard page
type PageData struct {
	UserName  string
	Email     string
	Flash     *shared.Flash
	CSRFToken string
}

// Page greets the signed-in user and offers sign-out.
func Page(data PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := shared.NewWriter(w)
		pw.Raw(`<div class="w-full max-w-md">`)
		pw.Component(ctx, shared.FlashMessage(data.Flash))
		pw.Raw(`<div class="rounded-3xl border border-white/10 bg-white/5 p-6 shadow-2xl">`,
			`<h1 class="text-lg font-semibold tracking-tight" data-user-name>`)
		pw.Text(data.UserName)
		pw.Raw(`</h1>`)
		if data.Email != "" && data.Email != data.UserName {
			pw.Raw(`<p class="text-xs text-white/60">`)
			pw.Text(data.Email)
			pw.Raw(`</p>`)
		}
		pw.Raw(`<form method="post" action="/logout" class="mt-6">`,
			`<input type="hidden" name="csrf_token"`)
		pw.Attr("value", data.CSRFToken)
		pw.Raw(`><button type="submit" class="text-xs text-white/55 hover:text-white/80">Sign out</button>`,
			`</form></div></div>`)
		return pw.Err()
	})
	return layouts.Base("Dashboard", body)
}
