// Package components renders the browser UI as templ components.
package components

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// html writes markup and remembers the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// f writes a format string. Arguments are not escaped; pass text through
// esc first.
func (h *html) f(format string, args ...any) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}

// text writes escaped text content.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// component renders a nested component.
func (h *html) component(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// action builds a datastar expression that sets $intent and posts it.
// The result is escaped for use inside a double-quoted attribute.
func action(intent string) string {
	return esc(fmt.Sprintf("$intent = %s; @post('/flow/intent')", intent))
}

// js quotes s as a JavaScript string literal.
func js(s string) string {
	return strconv.Quote(s)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
