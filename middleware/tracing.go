package middleware

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/httpclient"
	"github.com/kbukum/payclient/observability"
)

// Tracing wraps each logical request in a client span, propagates the
// trace context in the request headers, and records request metrics.
// Header values are never recorded on the span.
type Tracing struct {
	tracer  trace.Tracer
	metrics *observability.Metrics
}

// NewTracing returns a Tracing middleware. A nil tracer uses the global
// provider; nil metrics disables measurement.
func NewTracing(tracer trace.Tracer, metrics *observability.Metrics) *Tracing {
	if tracer == nil {
		tracer = observability.Tracer(observability.InstrumentationName)
	}
	return &Tracing{tracer: tracer, metrics: metrics}
}

// Handle implements Middleware.
func (t *Tracing) Handle(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error) {
	start := time.Now()
	ctx, span := t.tracer.Start(ctx, observability.SpanHTTPRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(observability.AttrHTTPMethod, req.Method),
			attribute.String(observability.AttrURLPath, req.URLPath()),
		),
	)
	defer span.End()

	if req.Header == nil {
		req.Header = make(http.Header)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := next.Run(ctx, req)

	status := 0
	outcome := "ok"
	if resp != nil {
		status = resp.StatusCode
	}
	if err != nil {
		outcome = clienterrors.KindOf(err).String()
		if apiErr, ok := clienterrors.AsAPIError(err); ok {
			status = apiErr.Status
			if apiErr.TraceID != "" {
				span.SetAttributes(attribute.String(observability.AttrTraceID, apiErr.TraceID))
			}
		}
		observability.SetSpanError(ctx, err, outcome)
		span.SetAttributes(attribute.String(observability.AttrErrorKind, outcome))
	}
	if status > 0 {
		span.SetAttributes(attribute.Int(observability.AttrHTTPStatus, status))
	}

	if t.metrics != nil {
		t.metrics.RecordRequest(ctx, req.Method, status, outcome, time.Since(start))
	}
	return resp, err
}
