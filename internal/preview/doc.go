// Package preview serves a demo app from a headless document.
//
// The app is mounted once into a dom.Document with hydration ids turned
// on, so every element with a listener carries a data-hid attribute. The
// browser renders the serialized body and reports clicks and changes back
// over a websocket (or POST /events); the server dispatches them into the
// document, where listeners call SetState and re-render, and pushes the new
// snapshot to every connected client.
//
// Routes:
//
//	GET  /          page with the current snapshot and the client script
//	GET  /snapshot  the body's HTML; X-Toyreact-Version carries its version
//	POST /events    {"hid": "h2", "type": "click", "detail": ...}
//	POST /reset     remount the app
//	GET  /ws        websocket for snapshots and events
//	GET  /history   recorded snapshot versions (?app= for another app)
//	GET  /history/N the HTML of snapshot N
//	GET  /metrics   Prometheus metrics, when a gatherer is configured
//	GET  /healthz   liveness
package preview
