package dom

import (
	"io"
	"log/slog"
	"strings"
	"unicode/utf16"
	"weak"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/toyreact/internal/errors"
)

// nodeKey identifies a node without keeping it alive.
type nodeKey = weak.Pointer[html.Node]

// Document is a mutable HTML document with listeners and live ranges.
type Document struct {
	root *html.Node

	listeners map[nodeKey]map[string][]Listener
	swept     int

	ranges []weak.Pointer[Range]

	hydrate bool
	hids    *HIDGenerator
	byHID   map[string]nodeKey

	logger *slog.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHydrationIDs stamps elements that receive listeners with data-hid.
func WithHydrationIDs() Option {
	return func(d *Document) {
		d.hydrate = true
	}
}

func newDocument(root *html.Node, opts []Option) *Document {
	d := &Document{
		root:      root,
		listeners: make(map[nodeKey]map[string][]Listener),
		hids:      NewHIDGenerator(),
		byHID:     make(map[string]nodeKey),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// New creates an empty document: <html><head></head><body></body></html>.
func New(opts ...Option) *Document {
	root := &html.Node{Type: html.DocumentNode}
	htmlEl := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	head := &html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	root.AppendChild(htmlEl)
	htmlEl.AppendChild(head)
	htmlEl.AppendChild(body)
	return newDocument(root, opts)
}

// Parse builds a document from HTML source.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return newDocument(root, opts), nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the <body> element, or nil if the document has none.
func (d *Document) Body() *html.Node {
	return findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
}

// Head returns the <head> element, or nil if the document has none.
func (d *Document) Head() *html.Node {
	return findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Head
	})
}

// GetElementByID returns the first element whose id attribute equals id.
func (d *Document) GetElementByID(id string) *html.Node {
	return findFirst(d.root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		v, ok := getAttr(n, "id")
		return ok && v == id
	})
}

// Contains reports whether n is attached to this document's tree.
func (d *Document) Contains(n *html.Node) bool {
	return n != nil && isInclusiveAncestor(d.root, n)
}

// CreateElement creates a detached element with the given tag.
func (d *Document) CreateElement(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// CreateTextNode creates a detached text node.
func (d *Document) CreateTextNode(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// SetAttribute sets an attribute on el, replacing any previous value.
// Names are lower-cased as the browser does for HTML elements.
func (d *Document) SetAttribute(el *html.Node, name, value string) {
	name = strings.ToLower(name)
	for i := range el.Attr {
		if el.Attr[i].Namespace == "" && el.Attr[i].Key == name {
			el.Attr[i].Val = value
			return
		}
	}
	el.Attr = append(el.Attr, html.Attribute{Key: name, Val: value})
}

// GetAttribute returns the value of an attribute and whether it is present.
func (d *Document) GetAttribute(el *html.Node, name string) (string, bool) {
	return getAttr(el, strings.ToLower(name))
}

// RemoveAttribute removes an attribute if present.
func (d *Document) RemoveAttribute(el *html.Node, name string) {
	name = strings.ToLower(name)
	for i := range el.Attr {
		if el.Attr[i].Namespace == "" && el.Attr[i].Key == name {
			el.Attr = append(el.Attr[:i], el.Attr[i+1:]...)
			return
		}
	}
}

// AppendChild appends child to parent, moving it if it is attached elsewhere.
func (d *Document) AppendChild(parent, child *html.Node) error {
	return d.InsertBefore(parent, child, nil)
}

// InsertBefore inserts child into parent before ref (nil means at the end).
func (d *Document) InsertBefore(parent, child, ref *html.Node) error {
	if parent == nil || child == nil {
		return errors.New("E106")
	}
	if isInclusiveAncestor(child, parent) {
		return errors.New("E104").WithDetailf("cannot insert <%s> into itself", child.Data)
	}
	if ref != nil && ref.Parent != parent {
		return errors.New("E104").WithDetail("reference node is not a child of parent")
	}
	if ref == child {
		ref = child.NextSibling
	}
	if child.Parent != nil {
		d.removeChild(child.Parent, child)
	}
	d.insertBefore(parent, child, ref)
	return nil
}

// RemoveChild detaches child from parent.
func (d *Document) RemoveChild(parent, child *html.Node) error {
	if parent == nil || child == nil {
		return errors.New("E106")
	}
	if child.Parent != parent {
		return errors.New("E104").WithDetail("node is not a child of parent")
	}
	d.removeChild(parent, child)
	return nil
}

// insertBefore performs the insertion and the live range bookkeeping.
// child must be detached.
func (d *Document) insertBefore(parent, child, ref *html.Node) {
	index := nodeLength(parent)
	if ref != nil {
		index = indexOf(ref)
	}
	parent.InsertBefore(child, ref)

	d.eachRange(func(r *Range) {
		if r.startContainer == parent && r.startOffset > index {
			r.startOffset++
		}
		if r.endContainer == parent && r.endOffset > index {
			r.endOffset++
		}
	})
}

// removeChild performs the removal and the live range bookkeeping.
func (d *Document) removeChild(parent, child *html.Node) {
	index := indexOf(child)

	d.eachRange(func(r *Range) {
		if isInclusiveAncestor(child, r.startContainer) {
			r.startContainer, r.startOffset = parent, index
		}
		if isInclusiveAncestor(child, r.endContainer) {
			r.endContainer, r.endOffset = parent, index
		}
		if r.startContainer == parent && r.startOffset > index {
			r.startOffset--
		}
		if r.endContainer == parent && r.endOffset > index {
			r.endOffset--
		}
	})

	parent.RemoveChild(child)
}

// track registers a live range.
func (d *Document) track(r *Range) {
	d.ranges = append(d.ranges, weak.Make(r))
}

// untrack removes a live range from bookkeeping.
func (d *Document) untrack(r *Range) {
	key := weak.Make(r)
	for i, p := range d.ranges {
		if p == key {
			d.ranges = append(d.ranges[:i], d.ranges[i+1:]...)
			return
		}
	}
}

// eachRange calls fn for every live range and drops collected ones.
func (d *Document) eachRange(fn func(*Range)) {
	live := d.ranges[:0]
	for _, p := range d.ranges {
		r := p.Value()
		if r == nil {
			continue
		}
		live = append(live, p)
		fn(r)
	}
	clear(d.ranges[len(live):])
	d.ranges = live
}

// LiveRanges returns the number of ranges currently tracked.
func (d *Document) LiveRanges() int {
	n := 0
	d.eachRange(func(*Range) { n++ })
	return n
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// isInclusiveAncestor reports whether a is n or one of n's ancestors.
func isInclusiveAncestor(a, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == a {
			return true
		}
	}
	return false
}

// nodeLength is the DOM length of a node: UTF-16 code units for character
// data, matching browser offsets, and children otherwise.
func nodeLength(n *html.Node) int {
	switch n.Type {
	case html.TextNode, html.CommentNode:
		units := 0
		for _, r := range n.Data {
			units += utf16.RuneLen(r)
		}
		return units
	}
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

func indexOf(n *html.Node) int {
	i := 0
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		i++
	}
	return i
}

func childAt(parent *html.Node, i int) *html.Node {
	c := parent.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}
