package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/toyreact/internal/errors"
	"github.com/vango-dev/toyreact/pkg/ui"
)

const defaultTracerName = "toyreact"

// TracingConfig configures the OpenTelemetry observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "toyreact").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider

	// Attributes are added to every span.
	Attributes []attribute.KeyValue
}

// TracingOption configures the OpenTelemetry observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the provider instead of the global one.
func WithTracerProvider(p trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = p
	}
}

// WithAttributes adds attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Tracer opens a span for every render operation. Operations that start
// while another is open in the same Scope become its children, so a setState
// span contains its rerender and render spans.
type Tracer struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
	root   *Scope
}

var (
	_ ui.Observer = (*Tracer)(nil)
	_ ui.Observer = (*Scope)(nil)
)

// NewTracer creates a Tracer. Install a provider with NewProvider and pass
// it with WithTracerProvider, or configure the global provider first.
func NewTracer(opts ...TracingOption) *Tracer {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.Provider != nil {
		tracer = config.Provider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}
	t := &Tracer{
		tracer: tracer,
		attrs:  config.Attributes,
	}
	t.root = t.Scope()
	return t
}

// Scope returns a fresh span stack sharing t's tracer. Give each builder
// its own Scope when several render independently: spans only nest under
// spans opened in the same Scope. A nil Tracer returns a nil Scope.
func (t *Tracer) Scope() *Scope {
	if t == nil {
		return nil
	}
	return &Scope{tracer: t, base: context.Background()}
}

// Within runs fn with ctx as the parent of every root span opened in t's
// default scope. A nil Tracer just runs fn.
func (t *Tracer) Within(ctx context.Context, fn func()) {
	if t == nil {
		fn()
		return
	}
	t.root.Within(ctx, fn)
}

// Begin implements ui.Observer using t's default scope.
func (t *Tracer) Begin(op ui.Op, component string) func(error) {
	if t == nil {
		return func(error) {}
	}
	return t.root.Begin(op, component)
}

// Scope is one stack of open spans. It is safe for concurrent use, but
// spans begun concurrently in one Scope nest under each other.
type Scope struct {
	tracer *Tracer

	mu    sync.Mutex
	base  context.Context
	stack []context.Context
}

// Within runs fn with ctx as the parent of every root span it opens. The
// preview server uses it to attach render spans to the request that
// triggered them. A nil Scope just runs fn.
func (s *Scope) Within(ctx context.Context, fn func()) {
	if s == nil {
		fn()
		return
	}
	s.mu.Lock()
	prev := s.base
	s.base = ctx
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.base = prev
		s.mu.Unlock()
	}()
	fn()
}

// Begin implements ui.Observer.
func (s *Scope) Begin(op ui.Op, component string) func(error) {
	if s == nil {
		return func(error) {}
	}
	attrs := append([]attribute.KeyValue{
		attribute.String("toyreact.op", string(op)),
		attribute.String("toyreact.component", component),
	}, s.tracer.attrs...)

	s.mu.Lock()
	parent := s.base
	if n := len(s.stack); n > 0 {
		parent = s.stack[n-1]
	}
	ctx, span := s.tracer.tracer.Start(parent, "toyreact."+string(op),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	s.stack = append(s.stack, ctx)
	s.mu.Unlock()

	return func(err error) {
		s.pop(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if code := errors.Code(err); code != "" {
				span.SetAttributes(attribute.String("toyreact.error_code", code))
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

func (s *Scope) pop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i] == ctx {
			s.stack = append(s.stack[:i], s.stack[i+1:]...)
			return
		}
	}
}
