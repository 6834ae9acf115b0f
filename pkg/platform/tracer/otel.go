package tracer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	scopeName = "xverify"

	// AttrErrorType follows the OpenTelemetry error.type convention.
	AttrErrorType   = "error.type"
	AttrPeerService = "peer.service"

	peerXAPI = "x-api"
)

// Errors may implement these to shape how End records them. *xapi.Error
// implements both.
type (
	categorized interface{ ErrorCategory() string }
	expected    interface{ Expected() bool }
)

// OTelTracer adapts an OpenTelemetry tracer to Tracer. Spans named "xapi.*"
// are client spans against the X API; everything else is internal. Raw
// handles passed with AttrHandle are hashed before they reach the exporter.
type OTelTracer struct {
	tracer trace.Tracer
}

// OTelOption configures the OTelTracer.
type OTelOption func(*OTelTracer)

// WithOTelTracer injects a pre-configured OpenTelemetry tracer.
func WithOTelTracer(t trace.Tracer) OTelOption {
	return func(o *OTelTracer) {
		o.tracer = t
	}
}

func NewOTel(opts ...OTelOption) *OTelTracer {
	t := &OTelTracer{}
	for _, opt := range opts {
		opt(t)
	}
	if t.tracer == nil {
		t.tracer = otel.Tracer(scopeName)
	}
	return t
}

func (t *OTelTracer) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	kv := convert(attrs)
	kind := trace.SpanKindInternal
	if strings.HasPrefix(name, "xapi.") {
		kind = trace.SpanKindClient
		kv = append(kv, attribute.String(AttrPeerService, peerXAPI))
	}
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(kind), trace.WithAttributes(kv...))
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

// End records err and closes the span. Expected failures are kept as an
// event and leave the status unset; faults set status Error.
func (s *otelSpan) End(err error) {
	defer s.span.End()
	if err == nil {
		return
	}

	errType := "internal"
	var c categorized
	if errors.As(err, &c) {
		errType = c.ErrorCategory()
	}
	s.span.SetAttributes(attribute.String(AttrErrorType, errType))

	var e expected
	if errors.As(err, &e) && e.Expected() {
		s.span.AddEvent("xapi.expected_error", trace.WithAttributes(attribute.String(AttrErrorType, errType)))
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, errType)
}

func (s *otelSpan) SetAttributes(attrs ...Attribute) {
	s.span.SetAttributes(convert(attrs)...)
}

func (s *otelSpan) AddEvent(name string, attrs ...Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(convert(attrs)...))
}

// convert maps attributes to OpenTelemetry key-values. Handles are replaced by
// their hash under AttrHandleHash; unknown value types are stringified.
func convert(attrs []Attribute) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == AttrHandle {
			if h, ok := a.Value.(string); ok {
				out = append(out, attribute.String(AttrHandleHash, HashHandle(h)))
			}
			continue
		}
		switch v := a.Value.(type) {
		case string:
			out = append(out, attribute.String(a.Key, v))
		case bool:
			out = append(out, attribute.Bool(a.Key, v))
		case int64:
			out = append(out, attribute.Int64(a.Key, v))
		case float64:
			out = append(out, attribute.Float64(a.Key, v))
		case time.Duration:
			out = append(out, attribute.Int64(a.Key, v.Milliseconds()))
		case []string:
			out = append(out, attribute.StringSlice(a.Key, v))
		default:
			out = append(out, attribute.String(a.Key, fmt.Sprint(v)))
		}
	}
	return out
}

var (
	_ Tracer = (*OTelTracer)(nil)
	_ Span   = (*otelSpan)(nil)
)
