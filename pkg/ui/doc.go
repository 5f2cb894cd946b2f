// Package ui builds trees of UI nodes and renders them into a live document.
//
// Trees are described with Builder.H, which takes a type descriptor (a tag
// name or a Factory for a user component), attributes and children:
//
//	b := ui.NewBuilder(ui.DOM(doc))
//	tree := b.H("ul", ui.Attrs{"className": "todo"},
//	    "first",
//	    nil,                          // elided
//	    []any{"second", []any{"third"}}, // flattened
//	)
//	err := b.Mount(tree, doc.Body())
//
// # Components
//
// A user component is a struct embedding Component and implementing Render:
//
//	type Counter struct{ ui.Component }
//
//	func (c *Counter) Render() ui.Node {
//	    state, _ := c.State().(map[string]any)
//	    n, _ := state["n"].(int)
//	    return c.H("button", ui.Attrs{
//	        "onClick": func() { c.SetState(map[string]any{"n": n + 1}) },
//	    }, fmt.Sprint(n))
//	}
//
//	b.Mount(b.H(ui.Of[Counter](), nil), doc.Body())
//
// # Re-rendering
//
// Every node renders into a Region, a live span of the document. A
// component remembers its region; Rerender renders a fresh tree into a new
// empty region at the old region's start, then deletes what remains of the
// old region. New content is inserted before the stale content is removed,
// so the insertion point is never invalidated and content outside the
// component's region is never touched. There is no diffing: the whole
// subtree is rebuilt on every update.
//
// # State
//
// SetState replaces state wholesale until the state is an object: a map
// with string keys or a slice, named or not. From then on fragments are merged field by
// field, recursing into nested objects; a nested object can never be
// replaced outright by SetState.
package ui
