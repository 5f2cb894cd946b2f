package ui

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/toyreact/pkg/dom"
)

// Node is anything that can be rendered into a Region: text and element
// leaves, and components. The rendering entry point is unexported; user
// types become Nodes by embedding Component.
type Node interface {
	renderIntoRegion(r Region) error
}

// Region is a live, boundary-delimited span of the host document.
type Region interface {
	StartContainer() *html.Node
	StartOffset() int
	EndContainer() *html.Node
	EndOffset() int
	SetStart(node *html.Node, offset int) error
	SetEnd(node *html.Node, offset int) error
	DeleteContents() error
	InsertNode(node *html.Node) error
}

// Host is the document capability the renderer consumes.
type Host interface {
	CreateElement(tag string) *html.Node
	CreateTextNode(data string) *html.Node
	SetAttribute(el *html.Node, name, value string)
	AddEventListener(el *html.Node, typ string, l dom.Listener)
	NewRegion(container *html.Node, start, end int) (Region, error)
}

// domHost adapts a dom.Document to Host.
type domHost struct {
	*dom.Document
}

// DOM returns a Host backed by doc.
func DOM(doc *dom.Document) Host {
	return domHost{Document: doc}
}

// NewRegion implements Host.
func (h domHost) NewRegion(container *html.Node, start, end int) (Region, error) {
	r, err := h.NewRange(container, start, end)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// brokenNode is returned by H when the node could not be constructed.
type brokenNode struct {
	err error
}

func (n *brokenNode) renderIntoRegion(Region) error { return n.err }

// Err returns the construction failure.
func (n *brokenNode) Err() error { return n.err }

// nodeName describes n for logs and metrics.
func nodeName(n Node) string {
	switch v := n.(type) {
	case *TextLeaf:
		return "#text"
	case *ElementLeaf:
		return v.root.Data
	case *brokenNode:
		return "#invalid"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*")
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func childCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}
