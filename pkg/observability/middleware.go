package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	httpStatusClientError = 400
	httpStatusServerError = 500

	unmatchedRoute = "unmatched"
)

// statusWriter captures the status code written through it.
type statusWriter struct {
	http.ResponseWriter

	statusCode int
	written    bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.written {
		sw.statusCode = code
		sw.written = true
	}

	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(buf []byte) (int, error) {
	if !sw.written {
		sw.statusCode = http.StatusOK
		sw.written = true
	}

	n, err := sw.ResponseWriter.Write(buf)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}

	return n, nil
}

// HTTPMiddleware wraps a [http.ServeMux] (or anything that sets
// Request.Pattern) with a server span, RED metrics and a debug log line per
// request. Spans and metrics are keyed by the matched route pattern, not the
// raw path, so document ids do not blow up cardinality. red and logger may be
// nil.
func HTTPMiddleware(tracer trace.Tracer, red *REDMetrics, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		start := time.Now()

		parentCtx := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

		ctx, span := tracer.Start(parentCtx, hr.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				semconv.URLPath(hr.URL.Path),
			),
		)
		defer span.End()

		sw := &statusWriter{ResponseWriter: rw, statusCode: http.StatusOK}
		req := hr.WithContext(ctx)

		var done func()
		if red != nil {
			done = red.TrackInflight(ctx, hr.Method)
		}

		next.ServeHTTP(sw, req)

		if done != nil {
			done()
		}

		route := req.Pattern
		if route == "" {
			route = unmatchedRoute
		}

		span.SetName(route)
		span.SetAttributes(
			semconv.HTTPRoute(route),
			semconv.HTTPResponseStatusCode(sw.statusCode),
		)

		status := StatusOK

		switch {
		case sw.statusCode >= httpStatusServerError:
			status = StatusError

			span.SetStatus(codes.Error, http.StatusText(sw.statusCode))
		case sw.statusCode >= httpStatusClientError:
			span.SetAttributes(attribute.Bool("http.client_error", true))
		}

		elapsed := time.Since(start)

		if red != nil {
			red.RecordRequest(ctx, route, status, elapsed)
		}

		if logger != nil {
			logger.DebugContext(ctx, "request",
				"route", route,
				"path", hr.URL.Path,
				"status", sw.statusCode,
				"duration", elapsed,
			)
		}
	})
}
