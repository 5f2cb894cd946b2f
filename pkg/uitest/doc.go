// Package uitest provides helpers for testing components.
//
// A Harness mounts a tree into a fresh document and lets a test drive it
// the way a user would:
//
//	func TestCounter(t *testing.T) {
//	    h := uitest.Mount(t, func(b *ui.Builder) ui.Node {
//	        return b.H(ui.Of[Counter](), nil)
//	    })
//	    h.Click(h.ByClass("inc"))
//	    h.ExpectContains(`<span class="count">1</span>`)
//	}
//
// # Queries
//
// ByClass, ByTag and ByText return the first matching element in document
// order and fail the test when nothing matches. Query and QueryAll take raw
// XPath expressions. Query again after an event; re-rendering replaces the
// elements a component owns.
package uitest
