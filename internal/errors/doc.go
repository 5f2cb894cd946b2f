// Package errors provides structured, coded errors for toyreact.
//
// Every failure the renderer, the host document, the configuration loader
// and the command line tool can report has a registered code (e.g. "E101")
// mapping to a category, a short message, a longer explanation and a
// documentation URL.
//
// # Error Categories
//
//   - dom: host document failures (range boundaries, hierarchy violations)
//   - render: tree building and rendering failures
//   - state: component state failures
//   - config: configuration file failures
//   - cli: command line failures
//   - preview: preview server failures
//   - publish: snapshot upload failures
//   - history: snapshot history failures
//
// # Usage
//
//	err := errors.New("E101").
//	    WithDetail("offset 7 exceeds length 3 of <div>").
//	    WithSuggestion("Clamp offsets to the container's child count")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Range boundary offset out of bounds
//	//
//	//   offset 7 exceeds length 3 of <div>
//	//
//	//   Hint: Clamp offsets to the container's child count
//	//
//	//   Learn more: https://toyreact.dev/docs/errors/E101
package errors
