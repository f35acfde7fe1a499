package auth

import (
	"context"
	"io"

	"github.com/a-h/templ"
	twmerge "github.com/Oudwins/tailwind-merge-go"

	"github.com/DukeRupert/eduauth/internal/templ/layouts"
	"github.com/DukeRupert/eduauth/internal/templ/shared"
)

const (
	inputBase    = "w-full rounded-2xl border border-white/10 bg-white/5 px-4 py-3 text-sm outline-none placeholder:text-white/30 focus:border-white/20 focus:bg-white/10"
	inputInvalid = "border-red-400/40 focus:border-red-400/60"

	primaryButton  = "w-full rounded-2xl bg-white text-zinc-950 px-4 py-3 text-sm font-semibold transition hover:bg-white/90 disabled:opacity-60"
	providerButton = "inline-flex w-full items-center justify-center gap-2 rounded-2xl border border-white/10 bg-white/5 px-4 py-3 text-sm text-white/90 transition hover:bg-white/10 disabled:opacity-50"
)

// InputClass returns the class list for an input, switching to the error
// border when invalid.
func InputClass(invalid bool) string {
	if invalid {
		return twmerge.Merge(inputBase, inputInvalid)
	}
	return inputBase
}

// LoginPage renders the sign-in form.
func LoginPage(data CredentialPageData) templ.Component {
	data.Mode = ModeSignIn
	return layouts.Base("Sign in", credentialCard(data))
}

// SignupPage renders the account creation form.
func SignupPage(data CredentialPageData) templ.Component {
	data.Mode = ModeSignUp
	return layouts.Base("Create account", credentialCard(data))
}

func credentialCard(data CredentialPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := shared.NewWriter(w)
		pw.Raw(`<div class="w-full max-w-md">`)

		if data.Mode == ModeSignUp {
			pw.Component(ctx, layouts.Brand("Create account", "Join and start learning"))
		} else {
			pw.Component(ctx, layouts.Brand("Welcome back", "Sign in to continue"))
		}

		pw.Raw(`<div class="rounded-3xl border border-white/10 bg-white/5 p-6 shadow-2xl">`)
		pw.Component(ctx, shared.FlashMessage(data.Flash))

		// Signup leads with the providers, login with the password form.
		if data.Mode == ModeSignUp {
			writeProviders(pw, data)
			writeDivider(pw)
			writeSignupForm(pw, data)
			pw.Raw(`<p class="mt-5 text-center text-xs text-white/55">Already have an account? `,
				`<a href="/login" class="text-white/80 hover:text-white">Sign in</a></p>`)
		} else {
			writeLoginForm(pw, data)
			writeDivider(pw)
			writeProviders(pw, data)
			pw.Raw(`<p class="mt-5 text-center text-xs text-white/55">Don’t have an account? `,
				`<a href="/signup" class="text-white/80 hover:text-white">Create one</a></p>`)
		}
		pw.Raw(`</div>`)

		lead := "By continuing, you agree to our"
		if data.Mode == ModeSignUp {
			lead = "By creating an account, you agree to our"
		}
		pw.Raw(`<p class="mt-6 text-center text-[11px] text-white/40">`)
		pw.Text(lead)
		pw.Raw(` <a href="/terms" class="underline underline-offset-4">Terms</a> and `,
			`<a href="/privacy" class="underline underline-offset-4">Privacy Policy</a>.</p>`)

		pw.Raw(`</div>`)
		return pw.Err()
	})
}

func writeLoginForm(pw *shared.Writer, data CredentialPageData) {
	pw.Raw(`<form method="post" action="/login" class="space-y-4" data-auth-form novalidate>`)
	writeHidden(pw, data)

	writeField(pw, data, "email", "Email", "email", "you@example.com", data.Form.Email, "email")
	writePasswordField(pw, data, "password", "Password", "current-password")

	pw.Raw(`<div class="flex items-center justify-between">`,
		`<label class="flex items-center gap-2 text-xs text-white/70">`,
		`<input type="checkbox" name="rememberMe" value="true" class="h-4 w-4 rounded border-white/20 bg-white/10"`)
	if data.Form.RememberMe {
		pw.Raw(` checked`)
	}
	pw.Raw(`> Remember me</label>`,
		`<a href="/forgot-password" class="text-xs text-white/55 hover:text-white/80">Forgot?</a>`,
		`</div>`)

	writeSubmit(pw, data, "Sign in", "Signing in…")
	pw.Raw(`</form>`)
}

func writeSignupForm(pw *shared.Writer, data CredentialPageData) {
	pw.Raw(`<form method="post" action="/signup" class="space-y-4" data-auth-form novalidate>`)
	writeHidden(pw, data)

	writeField(pw, data, "name", "Full name", "text", "Your name", data.Form.Name, "name")
	writeField(pw, data, "email", "Email", "email", "you@example.com", data.Form.Email, "email")
	writePasswordField(pw, data, "password", "Password", "new-password")
	writePasswordField(pw, data, "confirmPassword", "Confirm password", "new-password")

	writeSubmit(pw, data, "Create account", "Creating…")
	pw.Raw(`</form>`)
}

func writeHidden(pw *shared.Writer, data CredentialPageData) {
	pw.Raw(`<input type="hidden"`)
	pw.Attr("name", "csrf_token")
	pw.Attr("value", data.CSRFToken)
	pw.Raw(`>`)
	if data.ReturnTo != "" {
		pw.Raw(`<input type="hidden" name="return_to"`)
		pw.Attr("value", data.ReturnTo)
		pw.Raw(`>`)
	}
}

func writeField(pw *shared.Writer, data CredentialPageData, name, label, typ, placeholder, value, autocomplete string) {
	msg, invalid := data.Errors[name]

	pw.Raw(`<div class="space-y-2"><label class="text-xs text-white/70"`)
	pw.Attr("for", name)
	pw.Raw(`>`)
	pw.Text(label)
	pw.Raw(`</label><input required`)
	pw.Attr("id", name)
	pw.Attr("name", name)
	pw.Attr("type", typ)
	pw.Attr("value", value)
	pw.Attr("placeholder", placeholder)
	pw.Attr("autocomplete", autocomplete)
	pw.Attr("class", InputClass(invalid))
	if invalid {
		pw.Raw(` aria-invalid="true"`)
		pw.Attr("aria-describedby", name+"-error")
	}
	pw.Raw(`>`)
	writeFieldError(pw, name, msg, invalid)
	pw.Raw(`</div>`)
}

func writePasswordField(pw *shared.Writer, data CredentialPageData, name, label, autocomplete string) {
	msg, invalid := data.Errors[name]

	pw.Raw(`<div class="space-y-2"><div class="flex items-center justify-between">`,
		`<label class="text-xs text-white/70"`)
	pw.Attr("for", name)
	pw.Raw(`>`)
	pw.Text(label)
	pw.Raw(`</label><button type="button" class="text-[11px] text-white/55 hover:text-white/80"`)
	pw.Attr("data-toggle-password", name)
	pw.Raw(`>Show</button></div><input required type="password" placeholder="••••••••"`)
	pw.Attr("id", name)
	pw.Attr("name", name)
	pw.Attr("autocomplete", autocomplete)
	pw.Attr("class", InputClass(invalid))
	if name == "confirmPassword" {
		pw.Raw(` data-match="password"`)
	}
	if invalid {
		pw.Raw(` aria-invalid="true"`)
		pw.Attr("aria-describedby", name+"-error")
	}
	pw.Raw(`>`)
	writeFieldError(pw, name, msg, invalid)
	pw.Raw(`</div>`)
}

func writeFieldError(pw *shared.Writer, name, msg string, invalid bool) {
	pw.Raw(`<p class="text-[11px] text-red-300/90"`)
	pw.Attr("id", name+"-error")
	if !invalid {
		pw.Raw(` hidden`)
	}
	pw.Raw(`>`)
	pw.Text(msg)
	pw.Raw(`</p>`)
}

func writeSubmit(pw *shared.Writer, data CredentialPageData, label, pendingLabel string) {
	pw.Raw(`<button type="submit"`)
	pw.Attr("class", primaryButton)
	pw.Attr("data-pending-label", pendingLabel)
	if data.Pending {
		pw.Raw(` disabled`)
	}
	pw.Raw(`>`)
	if data.Pending && data.PendingKind == PendingEmail {
		pw.Text(pendingLabel)
	} else {
		pw.Text(label)
	}
	pw.Raw(`</button>`)
}

func writeDivider(pw *shared.Writer) {
	pw.Raw(`<div class="my-5 flex items-center gap-3">`,
		`<div class="h-px flex-1 bg-white/10"></div>`,
		`<span class="text-[11px] text-white/50">or</span>`,
		`<div class="h-px flex-1 bg-white/10"></div></div>`)
}

func writeProviders(pw *shared.Writer, data CredentialPageData) {
	if len(data.Providers) == 0 {
		return
	}
	pw.Raw(`<div class="grid grid-cols-2 gap-3">`)
	for _, p := range data.Providers {
		pw.Raw(`<form method="post" data-auth-form`)
		pw.Attr("action", "/auth/"+p.ID)
		pw.Raw(`>`)
		writeHidden(pw, data)
		pw.Raw(`<input type="hidden" name="mode"`)
		pw.Attr("value", string(data.Mode))
		pw.Raw(`><button type="submit"`)
		pw.Attr("class", providerButton)
		pw.Attr("data-pending-label", "Connecting…")
		if data.Pending {
			pw.Raw(` disabled`)
		}
		pw.Raw(`><span class="font-medium">`)
		if data.Pending && data.PendingKind == p.PendingKind {
			pw.Text("Connecting…")
		} else {
			pw.Text(p.Label)
		}
		pw.Raw(`</span></button></form>`)
	}
	pw.Raw(`</div>`)
}
