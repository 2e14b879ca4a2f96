package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/textpatch/pkg/observability"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	return record
}

func newJSONLogger(buf *bytes.Buffer, env string, mode observability.AppMode) *slog.Logger {
	inner := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(observability.NewTracingHandler(inner, "textpatch", env, mode))
}

func TestTracingHandler_InjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := newJSONLogger(&buf, "test", observability.ModeServe)

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "spliced")

	record := decodeRecord(t, &buf)
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", record["trace_id"])
	assert.Equal(t, "0102030405060708", record["span_id"])
	assert.Equal(t, "textpatch", record["service"])
	assert.Equal(t, "test", record["env"])
	assert.Equal(t, "serve", record["mode"])
}

func TestTracingHandler_NoTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	newJSONLogger(&buf, "", observability.ModeCLI).InfoContext(context.Background(), "no span")

	record := decodeRecord(t, &buf)

	_, hasTraceID := record["trace_id"]
	assert.False(t, hasTraceID)

	_, hasEnv := record["env"]
	assert.False(t, hasEnv)
	assert.Equal(t, "cli", record["mode"])
}

func TestTracingHandler_Document(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ctx := observability.ContextWithDocument(context.Background(), "notes.txt")
	newJSONLogger(&buf, "", observability.ModeServe).DebugContext(ctx, "rebased")

	record := decodeRecord(t, &buf)
	assert.Equal(t, "notes.txt", record["document"])

	id, ok := observability.DocumentFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "notes.txt", id)

	_, ok = observability.DocumentFromContext(context.Background())
	assert.False(t, ok)
}

func TestTracingHandler_WithGroupKeepsServiceOnTop(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	grouped := newJSONLogger(&buf, "", observability.ModeCLI).WithGroup("patch")
	grouped.InfoContext(context.Background(), "splice", slog.Int("changes", 3))

	record := decodeRecord(t, &buf)
	assert.Equal(t, "textpatch", record["service"])

	group, ok := record["patch"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 3, group["changes"], 0)
}

func TestTracingHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := newJSONLogger(&buf, "", observability.ModeCLI).With(slog.String("op", "diff"))
	logger.InfoContext(context.Background(), "started")

	record := decodeRecord(t, &buf)
	assert.Equal(t, "diff", record["op"])
	assert.Equal(t, "textpatch", record["service"])
}

func TestNewLogger_RespectsLevelAndFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true
	cfg.LogOutput = &buf
	cfg.LogLevel = slog.LevelWarn

	logger := observability.NewLogger(cfg)
	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")

	record := decodeRecord(t, &buf)
	assert.Equal(t, "kept", record["msg"])
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := observability.ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = observability.ParseLevel("loud")
	require.Error(t, err)
}
