// Package dom is the headless host document toyreact renders into.
//
// A Document wraps a golang.org/x/net/html node tree and adds the pieces of
// the browser DOM the renderer relies on: attribute access, event listeners
// with bubbling dispatch, and live ranges.
//
// # Live Ranges
//
// A Range is a pair of boundary points, each a (container, offset) pair.
// Ranges created by a Document stay valid while the tree mutates: inserting
// or removing a child shifts every boundary that sits after it in the same
// container, and boundaries inside a removed subtree collapse onto the
// removal point. All structural mutation must therefore go through the
// Document (AppendChild, InsertBefore, RemoveChild, Range.InsertNode,
// Range.DeleteContents) rather than through html.Node methods directly.
//
// The Document references its ranges weakly, so a range nobody holds is
// dropped from bookkeeping by the garbage collector.
//
// # Hydration IDs
//
// With WithHydrationIDs, every element that receives an event listener is
// stamped with a data-hid attribute. Remote clients (see the preview server)
// use it to address event targets.
package dom
