package dom

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/toyreact/internal/errors"
)

// Range is a live span of a document between two boundary points.
type Range struct {
	doc *Document

	startContainer *html.Node
	startOffset    int
	endContainer   *html.Node
	endOffset      int

	detached bool
}

// NewRange creates a live range over container's children [start, end).
func (d *Document) NewRange(container *html.Node, start, end int) (*Range, error) {
	if container == nil {
		return nil, errors.New("E106")
	}
	if err := checkOffset(container, start); err != nil {
		return nil, err
	}
	if err := checkOffset(container, end); err != nil {
		return nil, err
	}
	if end < start {
		end = start
	}
	r := &Range{
		doc:            d,
		startContainer: container,
		startOffset:    start,
		endContainer:   container,
		endOffset:      end,
	}
	d.track(r)
	return r, nil
}

// StartContainer returns the node the range starts in.
func (r *Range) StartContainer() *html.Node { return r.startContainer }

// StartOffset returns the offset within the start container.
func (r *Range) StartOffset() int { return r.startOffset }

// EndContainer returns the node the range ends in.
func (r *Range) EndContainer() *html.Node { return r.endContainer }

// EndOffset returns the offset within the end container.
func (r *Range) EndOffset() int { return r.endOffset }

// Collapsed returns true if start and end are the same point.
func (r *Range) Collapsed() bool {
	return r.startContainer == r.endContainer && r.startOffset == r.endOffset
}

// SetStart moves the start boundary. If the new start lies after the end,
// or in a different tree, the end moves with it.
func (r *Range) SetStart(node *html.Node, offset int) error {
	if err := r.usable(); err != nil {
		return err
	}
	if err := checkBoundary(node, offset); err != nil {
		return err
	}
	r.startContainer, r.startOffset = node, offset
	if cmp, same := comparePoints(node, offset, r.endContainer, r.endOffset); !same || cmp > 0 {
		r.endContainer, r.endOffset = node, offset
	}
	return nil
}

// SetEnd moves the end boundary. If the new end lies before the start,
// or in a different tree, the start moves with it.
func (r *Range) SetEnd(node *html.Node, offset int) error {
	if err := r.usable(); err != nil {
		return err
	}
	if err := checkBoundary(node, offset); err != nil {
		return err
	}
	r.endContainer, r.endOffset = node, offset
	if cmp, same := comparePoints(r.startContainer, r.startOffset, node, offset); !same || cmp > 0 {
		r.startContainer, r.startOffset = node, offset
	}
	return nil
}

// Collapse moves one boundary onto the other.
func (r *Range) Collapse(toStart bool) {
	if toStart {
		r.endContainer, r.endOffset = r.startContainer, r.startOffset
	} else {
		r.startContainer, r.startOffset = r.endContainer, r.endOffset
	}
}

// DeleteContents removes every node between the boundaries. Afterwards the
// range is collapsed at its start.
func (r *Range) DeleteContents() error {
	if err := r.usable(); err != nil {
		return err
	}
	if r.Collapsed() {
		return nil
	}
	if r.startContainer != r.endContainer {
		return errors.New("E102").WithDetailf("start in <%s>, end in <%s>",
			r.startContainer.Data, r.endContainer.Data)
	}
	container := r.startContainer
	if isCharacterData(container) {
		return errors.New("E103")
	}

	doomed := make([]*html.Node, 0, r.endOffset-r.startOffset)
	for c := childAt(container, r.startOffset); c != nil && len(doomed) < r.endOffset-r.startOffset; c = c.NextSibling {
		doomed = append(doomed, c)
	}
	for _, c := range doomed {
		r.doc.removeChild(container, c)
	}
	return nil
}

// InsertNode inserts node at the start boundary. A node that is already
// attached is moved. If the range was collapsed, its end is advanced past
// the inserted node so the range spans it.
func (r *Range) InsertNode(node *html.Node) error {
	if err := r.usable(); err != nil {
		return err
	}
	if node == nil {
		return errors.New("E106")
	}
	if isCharacterData(r.startContainer) {
		return errors.New("E103")
	}
	if isInclusiveAncestor(node, r.startContainer) {
		return errors.New("E104").WithDetailf("cannot insert <%s> into itself", node.Data)
	}

	if node.Parent != nil {
		r.doc.removeChild(node.Parent, node)
	}

	parent := r.startContainer
	r.doc.insertBefore(parent, node, childAt(parent, r.startOffset))

	if r.Collapsed() {
		r.endContainer, r.endOffset = parent, r.startOffset+1
	}
	return nil
}

// Detach stops live updates; the range can no longer be used.
func (r *Range) Detach() {
	if r.detached {
		return
	}
	r.detached = true
	r.doc.untrack(r)
}

func (r *Range) usable() error {
	if r.detached {
		return errors.New("E105")
	}
	return nil
}

func isCharacterData(n *html.Node) bool {
	return n.Type == html.TextNode || n.Type == html.CommentNode
}

func checkOffset(n *html.Node, offset int) error {
	if offset < 0 || offset > nodeLength(n) {
		return errors.New("E101").WithDetailf("offset %d outside [0, %d] of <%s>", offset, nodeLength(n), n.Data)
	}
	return nil
}

func checkBoundary(n *html.Node, offset int) error {
	if n == nil {
		return errors.New("E106")
	}
	return checkOffset(n, offset)
}

// comparePoints orders two boundary points in tree order. It returns -1, 0
// or 1, and false when the points live in different trees.
func comparePoints(aNode *html.Node, aOffset int, bNode *html.Node, bOffset int) (int, bool) {
	if aNode == bNode {
		return compareInts(aOffset, bOffset), true
	}
	a := append(treePath(aNode), aOffset)
	b := append(treePath(bNode), bOffset)
	if treeRoot(aNode) != treeRoot(bNode) {
		return 0, false
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareInts(a[i], b[i]); c != 0 {
			return c, true
		}
	}
	// A strict prefix is a point in an ancestor placed just before the
	// descendant's subtree.
	return compareInts(len(a), len(b)), true
}

// treePath returns the child indexes leading from the root to n.
func treePath(n *html.Node) []int {
	var path []int
	for ; n.Parent != nil; n = n.Parent {
		path = append(path, indexOf(n))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func treeRoot(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
