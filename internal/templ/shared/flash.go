// Package shared holds types and components used by more than one page.
package shared

import (
	"context"
	"io"

	"github.com/a-h/templ"
	twmerge "github.com/Oudwins/tailwind-merge-go"
)

// FlashType selects the styling of a flash message.
type FlashType string

const (
	FlashSuccess FlashType = "success"
	FlashError   FlashType = "error"
	FlashWarning FlashType = "warning"
	FlashInfo    FlashType = "info"
)

// Flash is a one-shot message shown above a form.
type Flash struct {
	Type    FlashType
	Message string
}

const flashBase = "mb-4 rounded-2xl border px-4 py-3 text-sm"

var flashVariants = map[FlashType]string{
	FlashSuccess: "border-emerald-400/30 bg-emerald-400/10 text-emerald-200",
	FlashError:   "border-red-400/30 bg-red-400/10 text-red-200",
	FlashWarning: "border-amber-400/30 bg-amber-400/10 text-amber-200",
	FlashInfo:    "border-sky-400/30 bg-sky-400/10 text-sky-200",
}

// FlashClass returns the merged class list for a flash of type t.
func FlashClass(t FlashType) string {
	return twmerge.Merge(flashBase, flashVariants[t])
}

// FlashMessage renders f, or nothing when f is nil or empty.
func FlashMessage(f *Flash) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if f == nil || f.Message == "" {
			return nil
		}
		role := "status"
		if f.Type == FlashError {
			role = "alert"
		}
		_, err := io.WriteString(w,
			`<div role="`+role+`" class="`+templ.EscapeString(FlashClass(f.Type))+`">`+
				templ.EscapeString(f.Message)+
				`</div>`)
		return err
	})
}
