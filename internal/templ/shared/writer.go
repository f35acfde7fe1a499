package shared

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Writer streams markup to w and remembers the first write error, so a
// component can write many fragments and check once at the end.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes trusted markup.
func (pw *Writer) Raw(parts ...string) {
	for _, p := range parts {
		if pw.err != nil {
			return
		}
		_, pw.err = io.WriteString(pw.w, p)
	}
}

// Text writes s HTML-escaped.
func (pw *Writer) Text(s string) {
	pw.Raw(templ.EscapeString(s))
}

// Attr writes ` name="value"` with value escaped.
func (pw *Writer) Attr(name, value string) {
	pw.Raw(` `, name, `="`, templ.EscapeString(value), `"`)
}

// Component renders c in place.
func (pw *Writer) Component(ctx context.Context, c templ.Component) {
	if pw.err != nil || c == nil {
		return
	}
	pw.err = c.Render(ctx, pw.w)
}

// Err returns the first write error.
func (pw *Writer) Err() error {
	return pw.err
}
