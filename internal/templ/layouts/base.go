// Package layouts provides the HTML document shell shared by every page.
package layouts

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/DukeRupert/eduauth/internal/templ/shared"
)

// Base wraps body in the document shell with the given title.
func Base(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := shared.NewWriter(w)
		pw.Raw(`<!DOCTYPE html><html lang="en"><head>`,
			`<meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`)
		pw.Text(title)
		pw.Raw(` · EDU</title>`,
			`<link rel="stylesheet" href="/static/css/app.css">`,
			`<script src="/static/js/auth.js" defer></script>`,
			`</head>`,
			`<body class="min-h-screen w-full relative overflow-hidden bg-zinc-950 text-white">`,
			`<div class="backdrop" aria-hidden="true"></div>`,
			`<main class="relative z-10 mx-auto flex min-h-screen max-w-6xl items-center justify-center px-6 py-12">`)
		pw.Component(ctx, body)
		pw.Raw(`</main></body></html>`)
		return pw.Err()
	})
}

// Brand renders the EDU badge with a heading and subheading.
func Brand(title, subtitle string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := shared.NewWriter(w)
		pw.Raw(`<div class="mb-6 flex items-center justify-center gap-3">`,
			`<div class="h-10 w-10 rounded-2xl bg-white/10 border border-white/10 flex items-center justify-center">`,
			`<span class="text-sm font-semibold">EDU</span></div>`,
			`<div class="text-center"><h1 class="text-lg font-semibold tracking-tight">`)
		pw.Text(title)
		pw.Raw(`</h1><p class="text-xs text-white/60">`)
		pw.Text(subtitle)
		pw.Raw(`</p></div></div>`)
		return pw.Err()
	})
}
