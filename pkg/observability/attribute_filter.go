package observability

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Span attributes may describe positions and sizes but never document
// content. Keys outside allowedPrefixes are dropped, as are the content keys
// below even when a prefix would admit them.
var (
	allowedPrefixes = []string{"textpatch.", "document.", "http.", "url.", "error"}
	contentKeys     = map[string]bool{
		"textpatch.text":    true,
		"document.text":     true,
		"document.base":     true,
		"http.request.body": true,
	}
)

func attributeAllowed(key attribute.Key) bool {
	if contentKeys[string(key)] {
		return false
	}

	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(string(key), prefix) {
			return true
		}
	}

	return false
}

// attributeFilter strips disallowed attributes from finished spans before
// they reach the exporter.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
}

// NewAttributeFilter wraps delegate with the attribute allow-list.
func NewAttributeFilter(delegate sdktrace.SpanProcessor) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate}
}

// OnStart delegates to the wrapped processor.
func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

// OnEnd hands the delegate a view of s without the filtered attributes.
func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(filteredSpan{ReadOnlySpan: s})
}

// Shutdown delegates to the wrapped processor.
func (f *attributeFilter) Shutdown(ctx context.Context) error {
	err := f.delegate.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

// ForceFlush delegates to the wrapped processor.
func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	err := f.delegate.ForceFlush(ctx)
	if err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

type filteredSpan struct {
	sdktrace.ReadOnlySpan
}

// Attributes returns the allowed attributes only.
func (s filteredSpan) Attributes() []attribute.KeyValue {
	orig := s.ReadOnlySpan.Attributes()
	kept := make([]attribute.KeyValue, 0, len(orig))

	for _, kv := range orig {
		if attributeAllowed(kv.Key) {
			kept = append(kept, kv)
		}
	}

	return kept
}
