// Package telemetry bridges the scripted Trace hook to OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"

	"github.com/stateforward/go-scripted/embedded"
	"github.com/stateforward/go-scripted/kinds"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/stateforward/go-scripted"

// Trace opens one span per traced step. Spans of steps that begin while another
// step is still open become its children. The returned hook is as single
// threaded as the sequence or block it is attached to.
func Trace(ctx context.Context, tracer trace.Tracer) embedded.Trace {
	if tracer == nil {
		tracer = NewProvider().Tracer(instrumentation)
	}
	stack := []context.Context{ctx}
	return func(step string, elements ...embedded.Element) func(...any) {
		spanCtx, span := tracer.Start(stack[len(stack)-1], step, trace.WithAttributes(attributes(elements)...))
		stack = append(stack, spanCtx)
		depth := len(stack)
		return func(results ...any) {
			values := make([]string, 0, len(results))
			for _, result := range results {
				if err, ok := result.(error); ok && err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
				}
				values = append(values, fmt.Sprint(result))
			}
			if len(values) > 0 {
				span.SetAttributes(attribute.StringSlice("scripted.results", values))
			}
			stack = stack[:depth-1]
			span.End()
		}
	}
}

func attributes(elements []embedded.Element) []attribute.KeyValue {
	var names, ids, types []string
	for _, element := range elements {
		if element == nil {
			continue
		}
		if named, ok := element.(embedded.NamedElement); ok {
			names = append(names, named.Name())
		}
		ids = append(ids, element.Id())
		types = append(types, kindName(element.Kind()))
	}
	return []attribute.KeyValue{
		attribute.StringSlice("scripted.names", names),
		attribute.StringSlice("scripted.ids", ids),
		attribute.StringSlice("scripted.kinds", types),
	}
}

func kindName(kind uint64) string {
	switch {
	case kinds.IsKind(kind, kinds.Sequence):
		return "sequence"
	case kinds.IsKind(kind, kinds.Action):
		return "action"
	case kinds.IsKind(kind, kinds.Block):
		return "block"
	case kinds.IsKind(kind, kinds.Global):
		return "global"
	case kinds.IsKind(kind, kinds.Group):
		return "group"
	case kinds.IsKind(kind, kinds.Default):
		return "default"
	case kinds.IsKind(kind, kinds.Transition):
		return "transition"
	default:
		return "element"
	}
}

/******* No-op provider *******/

type Provider struct {
	trace.TracerProvider
}

var (
	provider    = &Provider{}
	tracer      = &Tracer{}
	span        = &Span{}
	spanContext = trace.SpanContext{}
)

// NewProvider returns a provider whose spans record nothing.
func NewProvider() *Provider {
	return provider
}

func (provider *Provider) Tracer(name string, options ...trace.TracerOption) trace.Tracer {
	return tracer
}

type Tracer struct {
	trace.Tracer
}

func (tracer *Tracer) Start(ctx context.Context, name string, options ...trace.SpanStartOption) (context.Context, trace.Span) {
	return ctx, span
}

type Span struct {
	trace.Span
}

func (span *Span) End(options ...trace.SpanEndOption)                  {}
func (span *Span) AddEvent(name string, options ...trace.EventOption)  {}
func (span *Span) AddLink(link trace.Link)                             {}
func (span *Span) IsRecording() bool                                   { return false }
func (span *Span) RecordError(err error, options ...trace.EventOption) {}
func (span *Span) SetAttributes(kv ...attribute.KeyValue)              {}
func (span *Span) SetName(name string)                                 {}
func (span *Span) SetStatus(code codes.Code, description string)       {}
func (span *Span) SpanContext() trace.SpanContext                      { return spanContext }
func (span *Span) TracerProvider() trace.TracerProvider                { return provider }
