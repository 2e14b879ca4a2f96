package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "textpatch.http.requests.total"
	metricRequestDuration  = "textpatch.http.request.duration.seconds"
	metricErrorsTotal      = "textpatch.http.errors.total"
	metricInflightRequests = "textpatch.http.inflight.requests"

	metricSplicesTotal   = "textpatch.splices.total"
	metricSpliceDuration = "textpatch.splice.duration.seconds"
	metricChanges        = "textpatch.changes"

	attrOp     = "op"
	attrStatus = "status"
	attrSpace  = "space"

	// StatusOK and StatusError label request outcomes.
	StatusOK    = "ok"
	StatusError = "error"
)

// requestBuckets covers 100µs to 10s; most requests touch one small tree.
var requestBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// spliceBuckets covers 1µs to 100ms.
var spliceBuckets = []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1}

// REDMetrics holds the Rate, Error, Duration instruments for HTTP requests.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates the request instruments on mt.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &REDMetrics{
		requestsTotal:    b.counter(metricRequestsTotal, "Total number of requests", "{request}"),
		requestDuration:  b.histogram(metricRequestDuration, "Request duration in seconds", "s", requestBuckets...),
		errorsTotal:      b.counter(metricErrorsTotal, "Total number of failed requests", "{error}"),
		inflightRequests: b.upDownCounter(metricInflightRequests, "Number of in-flight requests", "{request}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordRequest records a completed request.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight counter and returns the matching
// decrement.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// PatchMetrics counts edits applied to documents and the changes they hold.
type PatchMetrics struct {
	splicesTotal   metric.Int64Counter
	spliceDuration metric.Float64Histogram
	changes        metric.Int64UpDownCounter
}

// NewPatchMetrics creates the edit instruments on mt.
func NewPatchMetrics(mt metric.Meter) (*PatchMetrics, error) {
	b := newMetricBuilder(mt)

	pm := &PatchMetrics{
		splicesTotal:   b.counter(metricSplicesTotal, "Total number of splices applied", "{splice}"),
		spliceDuration: b.histogram(metricSpliceDuration, "Splice duration in seconds", "s", spliceBuckets...),
		changes:        b.upDownCounter(metricChanges, "Number of changes held by open documents", "{change}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return pm, nil
}

// RecordSplice records one splice in space ("input" or "output") that moved
// the change count by delta.
func (pm *PatchMetrics) RecordSplice(ctx context.Context, space string, duration time.Duration, delta int) {
	attrs := metric.WithAttributes(attribute.String(attrSpace, space))

	pm.splicesTotal.Add(ctx, 1, attrs)
	pm.spliceDuration.Record(ctx, duration.Seconds(), attrs)

	if delta != 0 {
		pm.changes.Add(ctx, int64(delta))
	}
}

// ForgetChanges removes n changes from the open-document count, as when a
// document is closed.
func (pm *PatchMetrics) ForgetChanges(ctx context.Context, n int) {
	if n != 0 {
		pm.changes.Add(ctx, -int64(n))
	}
}
