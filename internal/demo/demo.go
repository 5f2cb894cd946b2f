// Package demo contains sample components rendered by the toyreact CLI and
// preview server.
package demo

import (
	"slices"
	"strconv"
	"strings"

	"github.com/vango-dev/toyreact/internal/errors"
	"github.com/vango-dev/toyreact/pkg/dom"
	"github.com/vango-dev/toyreact/pkg/ui"
)

// Counter shows a number with buttons to change it. The "start" prop sets
// the initial value; "step" sets the increment (default 1).
type Counter struct {
	ui.Component
}

func (c *Counter) count() int {
	if m, ok := c.State().(map[string]any); ok {
		if n, ok := toInt(m["count"]); ok {
			return n
		}
	}
	n, _ := toInt(c.Prop("start"))
	return n
}

func (c *Counter) step() int {
	if n, ok := toInt(c.Prop("step")); ok && n != 0 {
		return n
	}
	return 1
}

func (c *Counter) add(delta int) {
	_ = c.SetState(map[string]any{"count": c.count() + delta})
}

func (c *Counter) Render() ui.Node {
	n := c.count()
	return c.H("div", ui.Attrs{"className": "counter"},
		c.H("button", ui.Attrs{"className": "dec", "onClick": func() { c.add(-c.step()) }}, "-"),
		c.H("span", ui.Attrs{"className": "count"}, strconv.Itoa(n)),
		c.H("button", ui.Attrs{"className": "inc", "onClick": func() { c.add(c.step()) }}, "+"),
	)
}

// TodoList keeps a list of items that can be added and toggled. The draft
// text arrives as the detail of a change event on the input.
type TodoList struct {
	ui.Component
}

func (t *TodoList) state() map[string]any {
	m, _ := t.State().(map[string]any)
	return m
}

func (t *TodoList) items() []any {
	items, _ := t.state()["items"].([]any)
	return items
}

func (t *TodoList) draft() string {
	s, _ := t.state()["draft"].(string)
	return s
}

func (t *TodoList) setDraft(e *dom.Event) {
	s, _ := e.Detail.(string)
	_ = t.SetState(map[string]any{"draft": s})
}

func (t *TodoList) addItem() {
	text := t.draft()
	if text == "" {
		return
	}
	items := append(slices.Clone(t.items()), map[string]any{"text": text, "done": false})
	_ = t.SetState(map[string]any{"items": items, "draft": ""})
}

// toggle flips one item. The fragment holds nil at every other index, which
// the merge leaves untouched.
func (t *TodoList) toggle(i int) {
	item, _ := t.items()[i].(map[string]any)
	done, _ := item["done"].(bool)
	fragment := make([]any, i+1)
	fragment[i] = map[string]any{"done": !done}
	_ = t.SetState(map[string]any{"items": fragment})
}

func (t *TodoList) Render() ui.Node {
	var rows []ui.Node
	remaining := 0
	for i, it := range t.items() {
		item, _ := it.(map[string]any)
		text, _ := item["text"].(string)
		done, _ := item["done"].(bool)
		class := "item"
		if done {
			class += " done"
		} else {
			remaining++
		}
		rows = append(rows, t.H("li", ui.Attrs{
			"className": class,
			"onClick":   func() { t.toggle(i) },
		}, text))
	}

	return t.H("section", ui.Attrs{"className": "todo"},
		t.H("h2", nil, "Todo (", strconv.Itoa(remaining), " left)"),
		t.H("input", ui.Attrs{
			"className":   "draft",
			"value":       t.draft(),
			"placeholder": "What needs doing?",
			"onChange":    t.setDraft,
		}),
		t.H("button", ui.Attrs{"className": "add", "onClick": t.addItem}, "Add"),
		t.H("ul", nil, rows),
	)
}

// Greeting greets its "name" prop and shows its children below the heading.
type Greeting struct {
	ui.Component
}

func (g *Greeting) Render() ui.Node {
	name, _ := g.Prop("name").(string)
	if name == "" {
		name = "world"
	}
	return g.H("article", ui.Attrs{"className": "greeting"},
		g.H("h1", nil, "Hello, ", name, "!"),
		g.Children(),
	)
}

var apps = map[string]func(b *ui.Builder) ui.Node{
	"counter": func(b *ui.Builder) ui.Node {
		return b.H(ui.Of[Counter](), nil)
	},
	"todo": func(b *ui.Builder) ui.Node {
		return b.H(ui.Of[TodoList](), nil)
	},
	"greeting": func(b *ui.Builder) ui.Node {
		return b.H(ui.Of[Greeting](), ui.Attrs{"name": "toyreact"},
			b.H("p", nil, "This card renders a counter as its child."),
			b.H(ui.Of[Counter](), ui.Attrs{"start": 10, "step": 5}),
		)
	},
}

// Names returns the names of the demo apps in sorted order.
func Names() []string {
	names := make([]string, 0, len(apps))
	for name := range apps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// App builds the named demo app with b.
func App(b *ui.Builder, name string) (ui.Node, error) {
	build, ok := apps[name]
	if !ok {
		return nil, errors.New("E501").
			WithDetailf("unknown app %q", name).
			WithSuggestion("Choose one of: " + strings.Join(Names(), ", "))
	}
	return build(b), nil
}

// Render mounts the named app into the body of a fresh document.
func Render(name string, opts ...ui.Option) (*dom.Document, error) {
	doc := dom.New()
	b := ui.NewBuilder(ui.DOM(doc), opts...)
	root, err := App(b, name)
	if err != nil {
		return nil, err
	}
	if err := b.Mount(root, doc.Body()); err != nil {
		return nil, err
	}
	return doc, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}
