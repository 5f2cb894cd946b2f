package dom

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/vango-dev/toyreact/internal/errors"
)

// labels describes n's children: tag names for elements, data for text.
func labels(n *html.Node) []string {
	var out []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, "<"+c.Data+">")
		} else {
			out = append(out, c.Data)
		}
	}
	return out
}

// seed appends text children with the given data to parent.
func seed(t *testing.T, d *Document, parent *html.Node, data ...string) []*html.Node {
	t.Helper()
	var nodes []*html.Node
	for _, s := range data {
		n := d.CreateTextNode(s)
		if err := d.AppendChild(parent, n); err != nil {
			t.Fatalf("AppendChild(%q) error: %v", s, err)
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func assertRange(t *testing.T, r *Range, sc *html.Node, so int, ec *html.Node, eo int) {
	t.Helper()
	if r.StartContainer() != sc || r.StartOffset() != so || r.EndContainer() != ec || r.EndOffset() != eo {
		t.Errorf("range = (%s,%d)-(%s,%d), want (%s,%d)-(%s,%d)",
			r.StartContainer().Data, r.StartOffset(), r.EndContainer().Data, r.EndOffset(),
			sc.Data, so, ec.Data, eo)
	}
}

func TestNew(t *testing.T) {
	d := New()
	if d.Body() == nil || d.Head() == nil {
		t.Fatal("New() should create head and body")
	}
	got := HTML(d.Root())
	want := "<html><head></head><body></body></html>"
	if got != want {
		t.Errorf("HTML() = %q, want %q", got, want)
	}
}

func TestParse(t *testing.T) {
	d, err := Parse(strings.NewReader(`<body><div id="app"><p>old</p>tail</div></body>`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	app := d.GetElementByID("app")
	if app == nil {
		t.Fatal("GetElementByID(app) = nil")
	}
	if diff := cmp.Diff([]string{"<p>", "tail"}, labels(app)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	if d.GetElementByID("missing") != nil {
		t.Error("GetElementByID(missing) should be nil")
	}
}

func TestAttributes(t *testing.T) {
	d := New()
	el := d.CreateElement("DIV")
	if el.Data != "div" {
		t.Errorf("tag = %q, want div", el.Data)
	}

	d.SetAttribute(el, "title", "a")
	d.SetAttribute(el, "Title", "b")
	if v, ok := d.GetAttribute(el, "title"); !ok || v != "b" {
		t.Errorf("GetAttribute(title) = %q, %v; want b, true", v, ok)
	}
	if len(el.Attr) != 1 {
		t.Errorf("len(Attr) = %d, want 1 (last write wins)", len(el.Attr))
	}

	d.RemoveAttribute(el, "title")
	if _, ok := d.GetAttribute(el, "title"); ok {
		t.Error("attribute should be removed")
	}
}

func TestInsertBeforeErrors(t *testing.T) {
	d := New()
	outer := d.CreateElement("div")
	inner := d.CreateElement("span")
	if err := d.AppendChild(outer, inner); err != nil {
		t.Fatal(err)
	}
	if err := d.AppendChild(inner, outer); !errors.HasCode(err, "E104") {
		t.Errorf("AppendChild(cycle) error = %v, want E104", err)
	}
	if err := d.AppendChild(nil, inner); !errors.HasCode(err, "E106") {
		t.Errorf("AppendChild(nil) error = %v, want E106", err)
	}
	if err := d.RemoveChild(inner, outer); !errors.HasCode(err, "E104") {
		t.Errorf("RemoveChild(non-child) error = %v, want E104", err)
	}
}

func TestRangeInsertNodeIntoCollapsed(t *testing.T) {
	d := New()
	body := d.Body()
	seed(t, d, body, "a", "c")

	r, err := d.NewRange(body, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.InsertNode(d.CreateTextNode("b")); err != nil {
		t.Fatal(err)
	}
	assertRange(t, r, body, 1, body, 2)
	if diff := cmp.Diff([]string{"a", "b", "c"}, labels(body)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestRangeInsertNodeIntoNonCollapsed(t *testing.T) {
	d := New()
	body := d.Body()
	seed(t, d, body, "x", "y")

	r, _ := d.NewRange(body, 0, 2)
	if err := r.InsertNode(d.CreateTextNode("w")); err != nil {
		t.Fatal(err)
	}
	// Start stays before the new node, end shifts with the old content.
	assertRange(t, r, body, 0, body, 3)
}

func TestRangeInsertNodeMovesAttachedNode(t *testing.T) {
	d := New()
	body := d.Body()
	nodes := seed(t, d, body, "a", "b", "c")

	r, _ := d.NewRange(body, 0, 0)
	if err := r.InsertNode(nodes[2]); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, labels(body)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	assertRange(t, r, body, 0, body, 1)
}

func TestLiveRangeTracksSiblingInsertions(t *testing.T) {
	d := New()
	body := d.Body()
	nodes := seed(t, d, body, "a", "b", "c")

	r, _ := d.NewRange(body, 1, 2) // spans "b"

	if err := d.InsertBefore(body, d.CreateTextNode("pre"), nodes[0]); err != nil {
		t.Fatal(err)
	}
	assertRange(t, r, body, 2, body, 3)

	if err := d.AppendChild(body, d.CreateTextNode("post")); err != nil {
		t.Fatal(err)
	}
	assertRange(t, r, body, 2, body, 3)

	if err := d.RemoveChild(body, nodes[0]); err != nil {
		t.Fatal(err)
	}
	assertRange(t, r, body, 1, body, 2)
}

func TestLiveRangeCollapsesWhenSubtreeRemoved(t *testing.T) {
	d := New()
	body := d.Body()
	seed(t, d, body, "a")
	box := d.CreateElement("div")
	if err := d.AppendChild(body, box); err != nil {
		t.Fatal(err)
	}
	seed(t, d, box, "x", "y")

	r, _ := d.NewRange(box, 0, 2)
	if err := d.RemoveChild(body, box); err != nil {
		t.Fatal(err)
	}
	assertRange(t, r, body, 1, body, 1)
}

func TestRangeDeleteContents(t *testing.T) {
	d := New()
	body := d.Body()
	seed(t, d, body, "keep1", "drop1", "drop2", "keep2")

	r, _ := d.NewRange(body, 1, 3)
	if err := r.DeleteContents(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"keep1", "keep2"}, labels(body)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	if !r.Collapsed() || r.StartOffset() != 1 {
		t.Errorf("range should collapse at 1, got %d-%d", r.StartOffset(), r.EndOffset())
	}

	// Deleting an already collapsed range is a no-op.
	if err := r.DeleteContents(); err != nil {
		t.Errorf("DeleteContents(collapsed) error: %v", err)
	}
}

func TestRangeSetStartSetEnd(t *testing.T) {
	d := New()
	body := d.Body()
	seed(t, d, body, "a", "b", "c")

	r, _ := d.NewRange(body, 0, 1)
	if err := r.SetStart(body, 3); err != nil {
		t.Fatal(err)
	}
	assertRange(t, r, body, 3, body, 3)

	if err := r.SetEnd(body, 1); err != nil {
		t.Fatal(err)
	}
	assertRange(t, r, body, 1, body, 1)

	if err := r.SetEnd(body, 2); err != nil {
		t.Fatal(err)
	}
	assertRange(t, r, body, 1, body, 2)

	other := d.CreateElement("div")
	if err := r.SetStart(other, 0); err != nil {
		t.Fatal(err)
	}
	assertRange(t, r, other, 0, other, 0)
}

func TestComparePoints(t *testing.T) {
	d := New()
	body := d.Body()
	seed(t, d, body, "a")
	box := d.CreateElement("div")
	_ = d.AppendChild(body, box)
	seed(t, d, box, "x")

	tests := []struct {
		name   string
		aNode  *html.Node
		aOff   int
		bNode  *html.Node
		bOff   int
		want   int
		sameTr bool
	}{
		{"same container", body, 0, body, 1, -1, true},
		{"ancestor before child", body, 1, box, 0, -1, true},
		{"ancestor after child", body, 2, box, 1, 1, true},
		{"equal", box, 1, box, 1, 0, true},
		{"different trees", body, 0, d.CreateElement("p"), 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, same := comparePoints(tt.aNode, tt.aOff, tt.bNode, tt.bOff)
			if got != tt.want || same != tt.sameTr {
				t.Errorf("comparePoints = %d, %v; want %d, %v", got, same, tt.want, tt.sameTr)
			}
		})
	}
}

func TestRangeErrors(t *testing.T) {
	d := New()
	body := d.Body()
	nodes := seed(t, d, body, "a")
	box := d.CreateElement("div")
	_ = d.AppendChild(body, box)

	t.Run("offset out of bounds", func(t *testing.T) {
		if _, err := d.NewRange(body, 0, 5); !errors.HasCode(err, "E101") {
			t.Errorf("error = %v, want E101", err)
		}
		r, _ := d.NewRange(body, 0, 0)
		if err := r.SetEnd(body, -1); !errors.HasCode(err, "E101") {
			t.Errorf("error = %v, want E101", err)
		}
	})

	t.Run("multiple containers", func(t *testing.T) {
		r, _ := d.NewRange(body, 0, 0)
		_ = r.SetEnd(box, 0)
		if err := r.DeleteContents(); !errors.HasCode(err, "E102") {
			t.Errorf("error = %v, want E102", err)
		}
	})

	t.Run("text container", func(t *testing.T) {
		r, _ := d.NewRange(nodes[0], 0, 0)
		if err := r.InsertNode(d.CreateElement("b")); !errors.HasCode(err, "E103") {
			t.Errorf("error = %v, want E103", err)
		}
	})

	t.Run("insert into itself", func(t *testing.T) {
		r, _ := d.NewRange(box, 0, 0)
		if err := r.InsertNode(body); !errors.HasCode(err, "E104") {
			t.Errorf("error = %v, want E104", err)
		}
	})

	t.Run("detached", func(t *testing.T) {
		r, _ := d.NewRange(body, 0, 0)
		r.Detach()
		if err := r.InsertNode(d.CreateTextNode("x")); !errors.HasCode(err, "E105") {
			t.Errorf("error = %v, want E105", err)
		}
	})
}

func TestTextOffsetsCountUTF16Units(t *testing.T) {
	d := New()
	tests := []struct {
		data string
		max  int
	}{
		{"abc", 3},
		{"é", 1},
		{"a😀", 3},
		{"😀😀", 4},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			text := d.CreateTextNode(tt.data)
			if _, err := d.NewRange(text, 0, tt.max); err != nil {
				t.Errorf("offset %d rejected: %v", tt.max, err)
			}
			if _, err := d.NewRange(text, 0, tt.max+1); !errors.HasCode(err, "E101") {
				t.Errorf("offset %d error = %v, want E101", tt.max+1, err)
			}
		})
	}
}

func TestDetachStopsTracking(t *testing.T) {
	d := New()
	before := d.LiveRanges()
	r, _ := d.NewRange(d.Body(), 0, 0)
	if d.LiveRanges() != before+1 {
		t.Fatalf("LiveRanges() = %d, want %d", d.LiveRanges(), before+1)
	}
	r.Detach()
	if d.LiveRanges() != before {
		t.Errorf("LiveRanges() = %d, want %d", d.LiveRanges(), before)
	}

	seed(t, d, d.Body(), "a")
	assertRange(t, r, d.Body(), 0, d.Body(), 0)
}

func TestDispatchBubbles(t *testing.T) {
	d := New()
	outer := d.CreateElement("div")
	inner := d.CreateElement("button")
	_ = d.AppendChild(d.Body(), outer)
	_ = d.AppendChild(outer, inner)

	var order []string
	d.AddEventListener(inner, "click", func(e *Event) {
		order = append(order, "inner")
		if e.Target != inner || e.CurrentTarget != inner {
			t.Error("inner listener saw wrong targets")
		}
	})
	d.AddEventListener(outer, "click", func(e *Event) {
		order = append(order, "outer")
		if e.Target != inner || e.CurrentTarget != outer {
			t.Error("outer listener saw wrong targets")
		}
	})
	d.AddEventListener(outer, "input", func(*Event) { order = append(order, "input") })

	if n := d.Dispatch(inner, NewEvent("click")); n != 2 {
		t.Errorf("Dispatch() = %d, want 2", n)
	}
	if diff := cmp.Diff([]string{"inner", "outer"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if d.ListenerCount(outer, "click") != 1 {
		t.Errorf("ListenerCount = %d, want 1", d.ListenerCount(outer, "click"))
	}
}

func TestDispatchPathFixedBeforeListeners(t *testing.T) {
	d := New()
	outer := d.CreateElement("div")
	inner := d.CreateElement("button")
	_ = d.AppendChild(d.Body(), outer)
	_ = d.AppendChild(outer, inner)

	var order []string
	d.AddEventListener(inner, "click", func(*Event) {
		order = append(order, "inner")
		if err := d.RemoveChild(outer, inner); err != nil {
			t.Error(err)
		}
	})
	d.AddEventListener(outer, "click", func(*Event) { order = append(order, "outer") })
	d.AddEventListener(d.Body(), "click", func(*Event) { order = append(order, "body") })

	if n := d.Dispatch(inner, NewEvent("click")); n != 3 {
		t.Errorf("Dispatch() = %d, want 3", n)
	}
	if diff := cmp.Diff([]string{"inner", "outer", "body"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if inner.Parent != nil {
		t.Error("inner should be detached")
	}
}

func TestDispatchStopPropagation(t *testing.T) {
	d := New()
	outer := d.CreateElement("div")
	inner := d.CreateElement("button")
	_ = d.AppendChild(outer, inner)

	outerCalled := false
	d.AddEventListener(inner, "click", func(e *Event) { e.StopPropagation() })
	d.AddEventListener(outer, "click", func(*Event) { outerCalled = true })

	d.Dispatch(inner, NewEvent("click"))
	if outerCalled {
		t.Error("outer listener should not run after StopPropagation")
	}
}

func TestHydrationIDs(t *testing.T) {
	d := New(WithHydrationIDs())
	btn := d.CreateElement("button")
	_ = d.AppendChild(d.Body(), btn)

	clicks := 0
	d.AddEventListener(btn, "click", func(e *Event) {
		clicks++
		if e.Detail != "payload" {
			t.Errorf("Detail = %v, want payload", e.Detail)
		}
	})
	d.AddEventListener(btn, "focus", func(*Event) {})

	hid, ok := d.GetAttribute(btn, "data-hid")
	if !ok || hid != "h1" {
		t.Fatalf("data-hid = %q, %v; want h1", hid, ok)
	}

	if _, err := d.DispatchHID(hid, "click", "payload"); err != nil {
		t.Fatal(err)
	}
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}

	if _, err := d.DispatchHID("h99", "click", nil); !errors.HasCode(err, "E601") {
		t.Errorf("error = %v, want E601", err)
	}

	_ = d.RemoveChild(d.Body(), btn)
	if _, err := d.ElementByHID(hid); !errors.HasCode(err, "E601") {
		t.Errorf("detached element error = %v, want E601", err)
	}
}

func TestHydrationIDsDisabledByDefault(t *testing.T) {
	d := New()
	btn := d.CreateElement("button")
	d.AddEventListener(btn, "click", func(*Event) {})
	if _, ok := d.GetAttribute(btn, "data-hid"); ok {
		t.Error("data-hid should not be set without WithHydrationIDs")
	}
}

func TestSerialization(t *testing.T) {
	d := New()
	p := d.CreateElement("p")
	d.SetAttribute(p, "class", "x")
	_ = d.AppendChild(d.Body(), p)
	seed(t, d, p, "a < b")

	if got, want := InnerHTML(d.Body()), `<p class="x">a &lt; b</p>`; got != want {
		t.Errorf("InnerHTML() = %q, want %q", got, want)
	}
	if got := TextContent(d.Body()); got != "a < b" {
		t.Errorf("TextContent() = %q", got)
	}
	if got := len(ChildNodes(d.Body())); got != 1 {
		t.Errorf("len(ChildNodes) = %d, want 1", got)
	}
}
