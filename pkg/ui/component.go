package ui

import (
	"github.com/vango-dev/toyreact/internal/errors"
)

// Props holds a component's configuration, set once by its creator.
type Props map[string]any

// Composite is a user component: a struct embedding Component and
// supplying Render.
type Composite interface {
	Node

	// SetAttribute records a prop.
	SetAttribute(name string, value any) error

	// AppendChild records a declared child.
	AppendChild(child Node) error

	// Render builds the component's current output from its props, state
	// and children. It must not touch the document.
	Render() Node

	component() *Component
	fail(err error)
}

// Component is the embeddable base of every Composite.
type Component struct {
	b    *Builder
	self Composite

	props    Props
	children []Node
	state    any

	region Region
	err    error
}

func (c *Component) component() *Component { return c }

// SetAttribute records name as a prop. It never re-renders.
func (c *Component) SetAttribute(name string, value any) error {
	if c.props == nil {
		c.props = make(Props)
	}
	c.props[name] = value
	return nil
}

// AppendChild records a declared child. It never re-renders.
func (c *Component) AppendChild(child Node) error {
	c.children = append(c.children, child)
	return nil
}

// Props returns the component's props. Callers must not modify it.
func (c *Component) Props() Props {
	if c.props == nil {
		return Props{}
	}
	return c.props
}

// Prop returns a single prop, or nil.
func (c *Component) Prop(name string) any {
	return c.props[name]
}

// Children returns the declared children in order.
func (c *Component) Children() []Node {
	return c.children
}

// State returns the current state, or nil before any is set.
func (c *Component) State() any {
	return c.state
}

// InitState sets the initial state without re-rendering. Call it from the
// component's constructor.
func (c *Component) InitState(state any) {
	c.state = state
}

// Mounted reports whether the component has rendered into a region.
func (c *Component) Mounted() bool {
	return c.region != nil
}

// Builder returns the builder the component was created with.
func (c *Component) Builder() *Builder {
	return c.b
}

// H builds a node with the component's builder.
func (c *Component) H(typ any, attrs Attrs, children ...any) Node {
	if c.b == nil {
		return &brokenNode{err: errors.New("E207")}
	}
	return c.b.H(typ, attrs, children...)
}

// Text builds a text leaf with the component's builder.
func (c *Component) Text(s string) Node {
	if c.b == nil {
		return &brokenNode{err: errors.New("E207")}
	}
	return c.b.Text(s)
}

// SetState updates state and re-renders. Until the state is an object the
// fragment replaces it; afterwards the fragment is merged into it field by
// field. The state is updated even when the re-render fails.
func (c *Component) SetState(fragment any) error {
	done := c.b.observe(OpSetState, c.name())
	c.state = mergeField(c.state, fragment)
	err := c.Rerender()
	done(err)
	return err
}

// Rerender replaces the content of the component's region with a fresh
// render. The new content is inserted before the stale content, then the
// stale content is deleted; nothing outside the region is touched.
func (c *Component) Rerender() error {
	if c.self == nil || c.b == nil {
		return errors.New("E207")
	}
	old := c.region
	if old == nil {
		return errors.New("E202").WithDetail(c.name())
	}

	done := c.b.observe(OpRerender, c.name())
	err := c.rerender(old)
	done(err)
	return err
}

func (c *Component) rerender(old Region) error {
	start, offset := old.StartContainer(), old.StartOffset()
	fresh, err := c.b.host.NewRegion(start, offset, offset)
	if err != nil {
		return err
	}
	if err := c.renderIntoRegion(fresh); err != nil {
		return err
	}

	if err := old.SetStart(fresh.EndContainer(), fresh.EndOffset()); err != nil {
		return err
	}
	if err := old.DeleteContents(); err != nil {
		return err
	}
	// An ancestor that rendered straight into us shares old; stretch it back
	// over the new content.
	return old.SetStart(fresh.StartContainer(), fresh.StartOffset())
}

func (c *Component) renderIntoRegion(r Region) error {
	if c.err != nil {
		return c.err
	}
	if c.self == nil || c.b == nil {
		return errors.New("E207")
	}
	c.region = r

	done := c.b.observe(OpRender, c.name())
	out := c.self.Render()
	if isNil(out) {
		err := errors.New("E201").WithDetail(c.name())
		done(err)
		return err
	}
	err := c.b.renderInto(out, r)
	done(err)
	return err
}

func (c *Component) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *Component) name() string {
	if c.self == nil {
		return "Component"
	}
	return nodeName(c.self)
}
