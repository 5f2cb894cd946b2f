package ui

import (
	"log/slog"
	"maps"
	"slices"

	"golang.org/x/net/html"

	"github.com/vango-dev/toyreact/internal/errors"
)

// Attrs are the attributes passed to H. For elements they become native
// attributes or event listeners; for components they become props. They are
// applied in key order.
type Attrs map[string]any

// Factory constructs a fresh component instance.
type Factory func() Composite

// Of returns a Factory for a struct type embedding Component.
func Of[T any, PT interface {
	*T
	Composite
}]() Factory {
	return func() Composite {
		return PT(new(T))
	}
}

// builderNode is what H constructs: something that takes attributes and
// children and records construction failures.
type builderNode interface {
	Node
	SetAttribute(name string, value any) error
	AppendChild(child Node) error
	fail(err error)
}

// Builder constructs node trees against a Host and mounts them.
type Builder struct {
	host     Host
	logger   *slog.Logger
	observer Observer
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithObserver installs an Observer notified around every render operation.
func WithObserver(o Observer) Option {
	return func(b *Builder) {
		b.observer = o
	}
}

// NewBuilder creates a Builder rendering into host.
func NewBuilder(host Host, opts ...Option) *Builder {
	b := &Builder{
		host:   host,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Host returns the builder's host document.
func (b *Builder) Host() Host {
	return b.host
}

// Text creates a text leaf.
func (b *Builder) Text(s string) *TextLeaf {
	return &TextLeaf{root: b.host.CreateTextNode(s)}
}

// H builds a node. typ is a tag name or a Factory (a func() Composite is
// accepted too). Each attribute is applied with SetAttribute, then children
// are appended in order: strings become text leaves, nil is skipped, slices
// are flattened recursively, and nodes are appended as they are.
//
// Construction failures do not stop the build; they are recorded on the
// returned node and reported when it is rendered.
func (b *Builder) H(typ any, attrs Attrs, children ...any) Node {
	var n builderNode
	switch t := typ.(type) {
	case string:
		n = &ElementLeaf{b: b, root: b.host.CreateElement(t)}
	case Factory:
		n = b.instantiate(t)
	case func() Composite:
		n = b.instantiate(t)
	default:
		return &brokenNode{err: errors.New("E203").WithDetailf("got %T", typ)}
	}
	if n == nil {
		return &brokenNode{err: errors.New("E203").WithDetail("factory returned nil")}
	}

	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		if err := n.SetAttribute(name, attrs[name]); err != nil {
			n.fail(err)
		}
	}
	b.appendChildren(n, children)
	return n
}

func (b *Builder) instantiate(f func() Composite) builderNode {
	if f == nil {
		return nil
	}
	c := f()
	if isNil(c) {
		return nil
	}
	b.bind(c)
	return c
}

func (b *Builder) appendChildren(n builderNode, children []any) {
	for _, child := range children {
		switch v := child.(type) {
		case nil:
			continue
		case string:
			b.appendChild(n, b.Text(v))
		case []any:
			b.appendChildren(n, v)
		case []string:
			for _, s := range v {
				b.appendChild(n, b.Text(s))
			}
		case []Node:
			for _, c := range v {
				if !isNil(c) {
					b.appendChild(n, c)
				}
			}
		case Node:
			if !isNil(v) {
				b.appendChild(n, v)
			}
		default:
			n.fail(errors.New("E204").WithDetailf("got %T", child))
		}
	}
}

func (b *Builder) appendChild(n builderNode, child Node) {
	if err := n.AppendChild(child); err != nil {
		n.fail(err)
	}
}

// Mount clears container and renders n into it. Content already in the
// container is removed once, before anything is inserted.
func (b *Builder) Mount(n Node, container *html.Node) error {
	if container == nil {
		return errors.New("E206")
	}
	if isNil(n) {
		return errors.New("E204").WithDetail("nil root node")
	}

	done := b.observe(OpMount, nodeName(n))
	err := b.mount(n, container)
	done(err)
	return err
}

func (b *Builder) mount(n Node, container *html.Node) error {
	r, err := b.host.NewRegion(container, 0, childCount(container))
	if err != nil {
		return err
	}
	if err := r.DeleteContents(); err != nil {
		return err
	}
	return b.renderInto(n, r)
}

// renderInto binds components to this builder on first use and renders n.
func (b *Builder) renderInto(n Node, r Region) error {
	if c, ok := n.(Composite); ok {
		b.bind(c)
	}
	return n.renderIntoRegion(r)
}

func (b *Builder) bind(c Composite) {
	base := c.component()
	if base.self == nil {
		base.self = c
	}
	if base.b == nil {
		base.b = b
	}
}
