package uitest

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/vango-dev/toyreact/pkg/dom"
	"github.com/vango-dev/toyreact/pkg/ui"
)

// Harness is a document with a mounted tree.
type Harness struct {
	tb      testing.TB
	Doc     *dom.Document
	Builder *ui.Builder
	Root    ui.Node
}

// Mount builds a tree with build and mounts it into the body of a fresh
// document. Mount failures fail the test immediately.
func Mount(tb testing.TB, build func(b *ui.Builder) ui.Node, opts ...ui.Option) *Harness {
	tb.Helper()
	doc := dom.New()
	b := ui.NewBuilder(ui.DOM(doc), opts...)
	root := build(b)
	if err := b.Mount(root, doc.Body()); err != nil {
		tb.Fatalf("mount: %v", err)
	}
	return &Harness{tb: tb, Doc: doc, Builder: b, Root: root}
}

// HTML returns the body's content.
func (h *Harness) HTML() string {
	return dom.InnerHTML(h.Doc.Body())
}

// Query returns the first element under the body matching the XPath
// expression expr, or nil. Relative expressions start at the body.
func (h *Harness) Query(expr string) *html.Node {
	h.tb.Helper()
	n, err := htmlquery.Query(h.Doc.Body(), expr)
	if err != nil {
		h.tb.Fatalf("query %q: %v", expr, err)
	}
	return n
}

// QueryAll returns every element under the body matching expr.
func (h *Harness) QueryAll(expr string) []*html.Node {
	h.tb.Helper()
	nodes, err := htmlquery.QueryAll(h.Doc.Body(), expr)
	if err != nil {
		h.tb.Fatalf("query %q: %v", expr, err)
	}
	return nodes
}

// ByClass returns the first element whose class list contains class.
func (h *Harness) ByClass(class string) *html.Node {
	h.tb.Helper()
	return h.must("class "+class, classXPath(class))
}

// ByTag returns the first element with the given tag.
func (h *Harness) ByTag(tag string) *html.Node {
	h.tb.Helper()
	return h.must("<"+tag+">", ".//"+tag)
}

// ByText returns the first element whose text content equals text.
func (h *Harness) ByText(text string) *html.Node {
	h.tb.Helper()
	return h.must("text "+text, ".//*[. = "+literal(text)+"]")
}

// Has reports whether an element with the given class exists.
func (h *Harness) Has(class string) bool {
	h.tb.Helper()
	return h.Query(classXPath(class)) != nil
}

// Click dispatches a click at el and returns how many listeners ran.
func (h *Harness) Click(el *html.Node) int {
	return h.Fire(el, "click", nil)
}

// Fire dispatches an event of type typ carrying detail at el.
func (h *Harness) Fire(el *html.Node, typ string, detail any) int {
	h.tb.Helper()
	if el == nil {
		h.tb.Fatalf("fire %s: nil element", typ)
	}
	ev := dom.NewEvent(typ)
	ev.Detail = detail
	return h.Doc.Dispatch(el, ev)
}

// ExpectContains fails the test if the body's HTML lacks s.
func (h *Harness) ExpectContains(s string) {
	h.tb.Helper()
	if out := h.HTML(); !strings.Contains(out, s) {
		h.tb.Errorf("expected rendered output to contain %q, got:\n%s", s, truncate(out, 500))
	}
}

// ExpectNotContains fails the test if the body's HTML contains s.
func (h *Harness) ExpectNotContains(s string) {
	h.tb.Helper()
	if out := h.HTML(); strings.Contains(out, s) {
		h.tb.Errorf("expected rendered output to NOT contain %q, got:\n%s", s, truncate(out, 500))
	}
}

// ExpectText fails the test unless el's text content is want.
func (h *Harness) ExpectText(el *html.Node, want string) {
	h.tb.Helper()
	if got := dom.TextContent(el); got != want {
		h.tb.Errorf("text = %q, want %q", got, want)
	}
}

func (h *Harness) must(what, expr string) *html.Node {
	h.tb.Helper()
	n := h.Query(expr)
	if n == nil {
		h.tb.Fatalf("no element with %s in:\n%s", what, truncate(h.HTML(), 500))
	}
	return n
}

func classXPath(class string) string {
	return ".//*[contains(concat(' ', normalize-space(@class), ' '), " + literal(" "+class+" ") + ")]"
}

// literal quotes s as an XPath string. XPath 1.0 has no escapes, so a
// string holding both quote kinds is not supported.
func literal(s string) string {
	if strings.Contains(s, "'") {
		return `"` + s + `"`
	}
	return "'" + s + "'"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
