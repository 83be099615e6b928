package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/seabird-chat/seabird-radio/pkg/protocol"
)

// HandlerFunc resolves one command invocation and returns the reply text.
// Errors of type *CodedError control the response code; any other error
// becomes a generic handler failure.
type HandlerFunc func(ctx context.Context, ce *protocol.CommandEnvelope) (string, error)

// Handler is a named, registered command capability.
type Handler struct {
	// Spec carries the command name and help strings registered with the
	// core during the handshake.
	Spec protocol.CommandSpec

	// MinArgs and MaxArgs bound the accepted argument count.
	// MaxArgs < 0 means unlimited.
	MinArgs int
	MaxArgs int

	// Fn is the invocation function.
	Fn HandlerFunc
}

// Router maps inbound command names to handlers and dispatches them
// concurrently, bounded by a semaphore. The registration table is built
// once and read-only afterwards.
type Router struct {
	handlers map[string]Handler
	sem      chan struct{}
	timeout  time.Duration

	wg sync.WaitGroup

	tracer  trace.Tracer
	logger  *slog.Logger
	metrics *Metrics
}

// NewRouter builds the registration table. A duplicate command name is a
// configuration error: it fails construction rather than surfacing at
// dispatch time.
func NewRouter(cfg *Config, logger *slog.Logger, metrics *Metrics, handlers ...Handler) (*Router, error) {
	table := make(map[string]Handler, len(handlers))
	for _, h := range handlers {
		if h.Spec.Name == "" {
			return nil, errors.New("client: handler with empty command name")
		}
		if _, exists := table[h.Spec.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCommand, h.Spec.Name)
		}
		table[h.Spec.Name] = h
	}

	maxInFlight := cfg.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 1
	}

	return &Router{
		handlers: table,
		sem:      make(chan struct{}, maxInFlight),
		timeout:  cfg.InvocationTimeout,
		tracer:   otel.Tracer("seabird-radio"),
		logger:   logger.With("component", "router"),
		metrics:  metrics,
	}, nil
}

// Specs returns the registered command specs sorted by name, for the
// handshake registration.
func (r *Router) Specs() []protocol.CommandSpec {
	specs := make([]protocol.CommandSpec, 0, len(r.handlers))
	for _, h := range r.handlers {
		specs = append(specs, h.Spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Dispatch routes one inbound envelope. The core always gets exactly one
// answer for every request it sent: unknown commands and argument-shape
// violations are answered synchronously with structured errors, matched
// handlers run on their own goroutine and answer through the emitter when
// they complete. Dispatch blocks while the in-flight limit is reached,
// backpressuring the session read loop.
func (r *Router) Dispatch(ctx context.Context, ce *protocol.CommandEnvelope, emit ResponseSink) {
	h, ok := r.handlers[ce.Name]
	if !ok {
		r.metrics.CommandsTotal.WithLabelValues(ce.Name, protocol.CodeUnknownCommand.String()).Inc()
		emit.Emit(protocol.NewErrorResponse(ce, protocol.CodeUnknownCommand,
			fmt.Sprintf("unknown command %q", ce.Name)))
		return
	}

	if len(ce.Args) < h.MinArgs || (h.MaxArgs >= 0 && len(ce.Args) > h.MaxArgs) {
		r.metrics.CommandsTotal.WithLabelValues(ce.Name, protocol.CodeBadArguments.String()).Inc()
		emit.Emit(protocol.NewErrorResponse(ce, protocol.CodeBadArguments,
			fmt.Sprintf("bad arguments. Usage: %s", h.Spec.FullHelp)))
		return
	}

	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() { <-r.sem }()
		r.invoke(ctx, h, ce, emit)
	}()
}

// Wait blocks until all in-flight handler invocations have completed.
func (r *Router) Wait() {
	r.wg.Wait()
}

// invoke runs one handler with panic recovery, a soft deadline, and a
// tracing span, then emits exactly one response.
func (r *Router) invoke(ctx context.Context, h Handler, ce *protocol.CommandEnvelope, emit ResponseSink) {
	spanCtx, span := r.tracer.Start(ctx, "command."+ce.Name,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("seabird.command", ce.Name),
			attribute.String("seabird.correlation_id", ce.CorrelationID),
			attribute.Int("seabird.args", len(ce.Args)),
		))
	defer span.End()

	invokeCtx := spanCtx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		invokeCtx, cancel = context.WithTimeout(spanCtx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	response := r.run(invokeCtx, h, ce)
	r.metrics.HandlerDuration.WithLabelValues(ce.Name).Observe(time.Since(start).Seconds())
	r.metrics.CommandsTotal.WithLabelValues(ce.Name, response.Code.String()).Inc()

	if response.Code.IsError() {
		span.SetStatus(codes.Error, response.Code.String())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	emit.Emit(response)
}

// run executes the handler function and converts its outcome into a
// response envelope. A panicking or failing handler never takes down the
// session or other in-flight commands.
func (r *Router) run(ctx context.Context, h Handler, ce *protocol.CommandEnvelope) (response *protocol.ResponseEnvelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panic",
				"command", ce.Name,
				"panic", rec,
				"stack", string(debug.Stack()))
			response = protocol.NewErrorResponse(ce, protocol.CodeHandlerError, "internal error")
		}
	}()

	text, err := h.Fn(ctx, ce)
	if err == nil {
		return protocol.NewResponse(ce, text)
	}

	var coded *CodedError
	switch {
	case errors.As(err, &coded):
		return protocol.NewErrorResponse(ce, coded.Code, coded.Text)
	case errors.Is(err, context.DeadlineExceeded):
		r.logger.Warn("handler timed out", "command", ce.Name, "correlation_id", ce.CorrelationID)
		return protocol.NewErrorResponse(ce, protocol.CodeTimeout, "command timed out")
	default:
		r.logger.Error("handler failed", "command", ce.Name, "error", err)
		return protocol.NewErrorResponse(ce, protocol.CodeHandlerError, "internal error")
	}
}
