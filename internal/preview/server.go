package preview

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/toyreact/internal/demo"
	"github.com/vango-dev/toyreact/internal/errors"
	"github.com/vango-dev/toyreact/internal/history"
	"github.com/vango-dev/toyreact/pkg/dom"
	"github.com/vango-dev/toyreact/pkg/telemetry"
	"github.com/vango-dev/toyreact/pkg/ui"
)

// Options configures the preview server.
type Options struct {
	// App is the demo app to serve.
	App string

	// HotReload pushes a new snapshot to every client after each event.
	HotReload bool

	// Metrics receives renderer and server metrics. Optional.
	Metrics *telemetry.Metrics

	// Gatherer is exposed at MetricsPath when set.
	Gatherer prometheus.Gatherer

	// MetricsPath is where metrics are served (default: "/metrics").
	MetricsPath string

	// Tracer opens spans around render operations. Optional.
	Tracer *telemetry.Tracer

	// History records every snapshot version. Optional.
	History *history.Store

	// Logger is used for request and event logging.
	Logger *slog.Logger
}

// EventMessage asks the server to dispatch an event at the element with
// the given hydration id.
type EventMessage struct {
	HID    string `json:"hid"`
	Type   string `json:"type"`
	Detail any    `json:"detail,omitempty"`
}

// EventResult reports a dispatched event.
type EventResult struct {
	Listeners int    `json:"listeners"`
	Version   uint64 `json:"version"`
}

// Server renders a demo app into a headless document and lets browsers
// drive it. All document access is serialized by mu.
type Server struct {
	opts    Options
	logger  *slog.Logger
	hub     *Hub
	router  chi.Router
	tracer  trace.Tracer
	mu      sync.Mutex
	app     string
	doc     *dom.Document
	spans   *telemetry.Scope
	version uint64

	httpServer *http.Server
}

// New mounts the configured app and builds the router.
func New(opts Options) (*Server, error) {
	if opts.App == "" {
		opts.App = "counter"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		opts:   opts,
		logger: opts.Logger,
		hub:    NewHub(opts.Logger),
		tracer: otel.Tracer("toyreact/preview"),
	}
	s.hub.OnConnect = s.snapshotMessage
	s.hub.OnMessage = s.handleMessage
	s.hub.OnCountChange = func(delta int) {
		if delta > 0 {
			opts.Metrics.ClientConnected()
		} else {
			opts.Metrics.ClientDisconnected()
		}
	}

	if err := s.mount(opts.App); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

// App returns the name of the app being served.
func (s *Server) App() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.app
}

// Reset discards the document and mounts a fresh copy of the app.
func (s *Server) Reset() error {
	return s.mount(s.App())
}

// SwitchApp replaces the served app and pushes it to every client. The
// current app keeps running if name cannot be mounted.
func (s *Server) SwitchApp(name string) error {
	if err := s.mount(name); err != nil {
		return err
	}
	s.logger.Info("preview: switched app", "app", name)
	s.hub.Broadcast(s.snapshotMessage())
	return nil
}

func (s *Server) mount(app string) error {
	doc := dom.New(dom.WithHydrationIDs(), dom.WithLogger(s.logger))

	// Each document gets its own span stack, so a mount running beside a
	// dispatch on the previous document never adopts the dispatch's spans.
	spans := s.opts.Tracer.Scope()
	var observers []ui.Observer
	if s.opts.Metrics != nil {
		observers = append(observers, s.opts.Metrics)
	}
	if spans != nil {
		observers = append(observers, spans)
	}
	b := ui.NewBuilder(ui.DOM(doc),
		ui.WithLogger(s.logger),
		ui.WithObserver(ui.Observers(observers...)),
	)

	root, err := demo.App(b, app)
	if err != nil {
		return err
	}
	if err := b.Mount(root, doc.Body()); err != nil {
		return err
	}

	s.mu.Lock()
	s.app = app
	s.doc = doc
	s.spans = spans
	s.version++
	version := s.version
	s.mu.Unlock()

	s.record(app, version, dom.InnerHTML(doc.Body()))
	return nil
}

// record saves a snapshot to the history, if one is configured. Failures
// are logged; the preview keeps running without history.
func (s *Server) record(app string, version uint64, body string) {
	if s.opts.History == nil {
		return
	}
	if _, err := s.opts.History.Record(app, version, body); err != nil {
		s.logger.Warn("preview: history", "app", app, "error", err)
	}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handlePage)
	r.Get("/snapshot", s.handleSnapshot)
	r.Post("/events", s.handleEvent)
	r.Post("/reset", s.handleReset)
	r.Get("/ws", s.hub.HandleWebSocket)
	if s.opts.History != nil {
		r.Get("/history", s.handleHistory)
		r.Get("/history/{seq}", s.handleHistorySnapshot)
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if s.opts.Gatherer != nil {
		r.Handle(s.opts.MetricsPath, promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Snapshot returns the rendered body and its version.
func (s *Server) Snapshot() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dom.InnerHTML(s.doc.Body()), s.version
}

// Dispatch delivers msg into the document. Every dispatch that reaches a
// listener bumps the version and, with hot reload on, is broadcast.
func (s *Server) Dispatch(ctx context.Context, msg EventMessage) (EventResult, error) {
	if msg.HID == "" || msg.Type == "" {
		return EventResult{}, errors.New("E602").WithDetail("hid and type are required")
	}

	ctx, span := s.tracer.Start(ctx, "preview.dispatch", trace.WithAttributes(
		attribute.String("toyreact.hid", msg.HID),
		attribute.String("toyreact.event_type", msg.Type),
	))
	defer span.End()

	s.mu.Lock()
	var (
		n    int
		err  error
		app  = s.app
		body string
	)
	s.spans.Within(ctx, func() {
		n, err = s.doc.DispatchHID(msg.HID, msg.Type, msg.Detail)
	})
	if n > 0 {
		s.version++
		body = dom.InnerHTML(s.doc.Body())
	}
	result := EventResult{Listeners: n, Version: s.version}
	s.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return EventResult{}, err
	}
	s.opts.Metrics.RecordDispatch(msg.Type, n)
	if n > 0 {
		s.record(app, result.Version, body)
	}
	span.SetAttributes(attribute.Int("toyreact.listeners", n))
	s.logger.Debug("preview: event", "hid", msg.HID, "type", msg.Type, "listeners", n)

	if n > 0 && s.opts.HotReload {
		s.hub.Broadcast(s.snapshotMessage())
	}
	return result, nil
}

func (s *Server) snapshotMessage() Message {
	html, version := s.Snapshot()
	return Message{Type: MessageSnapshot, HTML: html, Version: version}
}

func (s *Server) handleMessage(data []byte) error {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errors.New("E602").Wrap(err)
	}
	result, err := s.Dispatch(context.Background(), msg)
	if err != nil {
		return err
	}
	// Without hot reload the sender still needs its own update.
	if !s.opts.HotReload && result.Listeners > 0 {
		s.hub.Broadcast(s.snapshotMessage())
	}
	return nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>toyreact preview: {{.App}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
.done { text-decoration: line-through; color: #888; }
.item { cursor: pointer; }
</style>
</head>
<body>
<div id="toyreact-root" data-version="{{.Version}}">{{.Body}}</div>
<script>{{.Script}}</script>
</body>
</html>
`))

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	body, version := s.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pageTemplate.Execute(w, struct {
		App     string
		Version uint64
		Body    template.HTML
		Script  template.JS
	}{s.App(), version, template.HTML(body), template.JS(ClientScript)})
	if err != nil {
		s.logger.Error("preview: render page", "error", err)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	body, version := s.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Toyreact-Version", strconv.FormatUint(version, 10))
	w.Write([]byte(body))
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var msg EventMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&msg); err != nil {
		s.writeError(w, errors.New("E602").Wrap(err))
		return
	}
	result, err := s.Dispatch(r.Context(), msg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.Reset(); err != nil {
		s.writeError(w, err)
		return
	}
	msg := s.snapshotMessage()
	s.hub.Broadcast(msg)
	writeJSON(w, http.StatusOK, EventResult{Version: msg.Version})
}

// historyApp is the app named by the request's app query parameter, or the
// one being served.
func (s *Server) historyApp(r *http.Request) string {
	if app := r.URL.Query().Get("app"); app != "" {
		return app
	}
	return s.App()
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	app := s.historyApp(r)
	snaps, err := s.opts.History.List(app)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if snaps == nil {
		snaps = []history.Snapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"app": app, "snapshots": snaps})
}

func (s *Server) handleHistorySnapshot(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
	if err != nil {
		s.writeError(w, errors.New("E802").WithDetailf("bad sequence %q", chi.URLParam(r, "seq")))
		return
	}
	snap, err := s.opts.History.Get(s.historyApp(r), seq)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Toyreact-Version", strconv.FormatUint(snap.Version, 10))
	w.Write([]byte(snap.HTML))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.Code(err) {
	case "E602":
		status = http.StatusBadRequest
	case "E601", "E802":
		status = http.StatusNotFound
	}
	e := errors.FromError(err, "E602")
	writeJSON(w, status, map[string]string{
		"code":    e.Code,
		"message": e.Message,
		"detail":  e.Detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("preview: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("preview: listening", "addr", addr, "app", s.App())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
