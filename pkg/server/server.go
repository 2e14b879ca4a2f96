// Package server exposes documents over HTTP: clients upload a base text,
// send edits and query the mapping between the base and the edited text.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/textpatch/pkg/config"
	"github.com/Sumatoshi-tech/textpatch/pkg/document"
	"github.com/Sumatoshi-tech/textpatch/pkg/observability"
)

const defaultMaxBodyBytes = 8 << 20

// Deps are the collaborators of the handler. Only Registry is required.
type Deps struct {
	Registry *document.Registry
	Logger   *slog.Logger
	Tracer   trace.Tracer
	RED      *observability.REDMetrics
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
}

type handlers struct {
	registry     *document.Registry
	logger       *slog.Logger
	maxBodyBytes int64
}

// New builds the HTTP handler.
func New(cfg config.ServerConfig, deps Deps) http.Handler {
	h := &handlers{
		registry:     deps.Registry,
		logger:       deps.Logger,
		maxBodyBytes: cfg.MaxBodyBytes,
	}

	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}

	if h.maxBodyBytes <= 0 {
		h.maxBodyBytes = defaultMaxBodyBytes
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /documents", h.listDocuments)
	mux.HandleFunc("PUT /documents/{id}", h.createDocument)
	mux.HandleFunc("DELETE /documents/{id}", h.deleteDocument)
	mux.HandleFunc("POST /documents/{id}/splice", h.splice)
	mux.HandleFunc("POST /documents/{id}/rebase", h.rebase)
	mux.HandleFunc("GET /documents/{id}/changes", h.changes)
	mux.HandleFunc("GET /documents/{id}/translate", h.translate)
	mux.HandleFunc("GET /documents/{id}/changed", h.changed)
	mux.HandleFunc("GET /documents/{id}/text", h.text)
	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(func(context.Context) error {
		if deps.Registry == nil {
			return errors.New("no document registry")
		}

		return nil
	}))

	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	return observability.HTTPMiddleware(tracer, deps.RED, h.logger, mux)
}

// Run serves handler on cfg.Addr() until ctx is canceled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func Run(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) error {
	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	return Serve(ctx, cfg, listener, handler, logger)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, cfg config.ServerConfig, listener net.Listener, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.InfoContext(ctx, "server listening", "addr", listener.Addr().String())

		serveErr := srv.Serve(listener)
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}

		return serveErr
	})

	group.Go(func() error {
		<-groupCtx.Done()

		timeout := cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		logger.InfoContext(ctx, "server shutting down")

		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
