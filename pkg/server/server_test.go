package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/textpatch/pkg/config"
	"github.com/Sumatoshi-tech/textpatch/pkg/document"
	"github.com/Sumatoshi-tech/textpatch/pkg/point"
	"github.com/Sumatoshi-tech/textpatch/pkg/server"
)

func newHandler(t *testing.T, cfg config.ServerConfig) (http.Handler, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	handler := server.New(cfg, server.Deps{
		Registry: document.NewRegistry(document.WithValidation(true)),
		Tracer:   tp.Tracer("test"),
		Metrics: http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(rw, "# metrics\n")
		}),
	})

	return handler, exporter
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, reader))

	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())

	return v
}

func TestServer_DocumentLifecycle(t *testing.T) {
	t.Parallel()

	h, exporter := newHandler(t, config.ServerConfig{})

	rec := do(t, h, http.MethodPut, "/documents/notes", `{"base": "hello world"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, server.DocumentResponse{ID: "notes", Text: "hello world"}, decodeBody[server.DocumentResponse](t, rec))

	rec = do(t, h, http.MethodPost, "/documents/notes/splice", `{"start": "0:6", "replaced": "0:5", "text": "there"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, server.DocumentResponse{ID: "notes", Text: "hello there", Changes: 1}, decodeBody[server.DocumentResponse](t, rec))

	rec = do(t, h, http.MethodGet, "/documents/notes/changes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	changes := decodeBody[server.ChangesResponse](t, rec)
	require.Len(t, changes.Changes, 1)
	assert.Equal(t, "there", changes.Changes[0].Text)
	assert.Equal(t, point.New(0, 11), changes.Changes[0].OutputEnd)
	assert.Equal(t, "1 change, 5 B inserted", changes.Summary)

	rec = do(t, h, http.MethodGet, "/documents/notes/translate?space=input&position=0:3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, point.New(0, 3), decodeBody[server.TranslateResponse](t, rec).Translated)

	rec = do(t, h, http.MethodGet, "/documents/notes/changed?space=output&position=0:7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[server.ChangedResponse](t, rec).Changed)

	rec = do(t, h, http.MethodPost, "/documents/notes/rebase", `{"base": "oh, hello world"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "oh, hello there", decodeBody[server.DocumentResponse](t, rec).Text)

	rec = do(t, h, http.MethodGet, "/documents/notes/text", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "oh, hello there", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/documents", "")
	assert.Equal(t, []string{"notes"}, decodeBody[server.ListResponse](t, rec).Documents)

	rec = do(t, h, http.MethodDelete, "/documents/notes", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/documents/notes/text", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var routes []string
	for _, span := range exporter.GetSpans() {
		routes = append(routes, span.Name)
	}

	assert.Contains(t, routes, "POST /documents/{id}/splice")
	assert.Contains(t, routes, "GET /documents/{id}/translate")
}

func TestServer_ChangesFormats(t *testing.T) {
	t.Parallel()

	h, _ := newHandler(t, config.ServerConfig{})

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPut, "/documents/d", `{"base": "abc"}`).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/documents/d/splice", `{"start": "0:1", "replaced": "0:0", "text": "X"}`).Code)

	rec := do(t, h, http.MethodGet, "/documents/d/changes?format=yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `output_end: "0:2"`)

	rec = do(t, h, http.MethodGet, "/documents/d/changes?format=text", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `-[0:1, 0:1) -> +[0:1, 0:2) "X"`)

	rec = do(t, h, http.MethodGet, "/documents/d/changes?format=html", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Errors(t *testing.T) {
	t.Parallel()

	h, _ := newHandler(t, config.ServerConfig{MaxBodyBytes: 64})

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPut, "/documents/d", `{"base": "abc"}`).Code)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"unknown document", http.MethodGet, "/documents/missing/changes", "", http.StatusNotFound},
		{"malformed body", http.MethodPost, "/documents/d/splice", `{"start":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/documents/d/splice", `{"begin": "0:0"}`, http.StatusBadRequest},
		{"bad point", http.MethodPost, "/documents/d/splice", `{"start": "x"}`, http.StatusBadRequest},
		{"out of range", http.MethodPost, "/documents/d/splice", `{"start": "4:0", "replaced": "0:0"}`, http.StatusBadRequest},
		{"body too large", http.MethodPut, "/documents/e", `{"base": "` + strings.Repeat("a", 100) + `"}`, http.StatusRequestEntityTooLarge},
		{"bad space", http.MethodGet, "/documents/d/translate?space=middle&position=0:0", "", http.StatusBadRequest},
		{"missing position", http.MethodGet, "/documents/d/changed?space=input", "", http.StatusBadRequest},
		{"wrong method", http.MethodPost, "/documents/d/text", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_Probes(t *testing.T) {
	t.Parallel()

	h, _ := newHandler(t, config.ServerConfig{})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/readyz", "").Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics\n", rec.Body.String())
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	h, _ := newHandler(t, config.ServerConfig{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- server.Serve(ctx, config.ServerConfig{ShutdownTimeout: time.Second}, listener, h, slog.New(slog.DiscardHandler))
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/healthz")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
