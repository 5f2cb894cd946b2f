package ui

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/vango-dev/toyreact/internal/errors"
	"github.com/vango-dev/toyreact/pkg/dom"
)

// TextLeaf wraps a single text node.
type TextLeaf struct {
	root *html.Node
}

// Root returns the wrapped text node.
func (t *TextLeaf) Root() *html.Node { return t.root }

func (t *TextLeaf) renderIntoRegion(r Region) error {
	return insertInto(r, t.root)
}

// ElementLeaf wraps a single element. Children appended to it are rendered
// into the element immediately, whether or not the element is mounted yet.
type ElementLeaf struct {
	b    *Builder
	root *html.Node
	err  error
}

// Root returns the wrapped element.
func (e *ElementLeaf) Root() *html.Node { return e.root }

// Err returns the first failure recorded while building this element.
func (e *ElementLeaf) Err() error { return e.err }

// SetAttribute applies an attribute. Names of the form on<Event> bind an
// event listener for the event whose name is <Event> with its first letter
// lower-cased; className sets the class attribute; anything else is set
// verbatim, the last write winning.
func (e *ElementLeaf) SetAttribute(name string, value any) error {
	if typ, ok := eventName(name); ok {
		l, err := toListener(value)
		if err != nil {
			return errors.FromError(err, "E205").WithDetailf("%s on <%s>", name, e.root.Data)
		}
		e.b.host.AddEventListener(e.root, typ, l)
		return nil
	}
	if name == "className" {
		name = "class"
	}
	e.b.host.SetAttribute(e.root, name, attrValue(value))
	return nil
}

// AppendChild renders child into a zero-width region at the end of the
// element's content.
func (e *ElementLeaf) AppendChild(child Node) error {
	end := childCount(e.root)
	r, err := e.b.host.NewRegion(e.root, end, end)
	if err != nil {
		return err
	}
	return e.b.renderInto(child, r)
}

func (e *ElementLeaf) renderIntoRegion(r Region) error {
	if e.err != nil {
		return e.err
	}
	return insertInto(r, e.root)
}

func (e *ElementLeaf) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// insertInto clears r and inserts n at its start.
func insertInto(r Region, n *html.Node) error {
	if err := r.DeleteContents(); err != nil {
		return err
	}
	return r.InsertNode(n)
}

// eventName maps "onClick" to "click". The bare name "on" is not an event.
func eventName(attr string) (string, bool) {
	rest, ok := strings.CutPrefix(attr, "on")
	if !ok || rest == "" {
		return "", false
	}
	first, size := utf8.DecodeRuneInString(rest)
	return string(unicode.ToLower(first)) + rest[size:], true
}

func toListener(v any) (dom.Listener, error) {
	switch h := v.(type) {
	case dom.Listener:
		if h != nil {
			return h, nil
		}
	case func(*dom.Event):
		if h != nil {
			return h, nil
		}
	case func():
		if h != nil {
			return func(*dom.Event) { h() }, nil
		}
	}
	return nil, errors.New("E205").WithDetailf("got %T", v)
}

func attrValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}
