package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/textpatch/pkg/document"
	"github.com/Sumatoshi-tech/textpatch/pkg/observability"
	"github.com/Sumatoshi-tech/textpatch/pkg/server"
)

type serveCommand struct {
	g    *globals
	host string
	port int
}

func newServeCommand(g *globals) *cobra.Command {
	sc := &serveCommand{g: g}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve documents over HTTP",
		Long: `Serve documents over HTTP. Clients upload a base text, send edits and
ask how positions map between the base and the edited text. Prometheus
metrics are served at /metrics. With server.state_dir set, documents are
saved there on shutdown and restored on the next start.`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	cmd.Flags().StringVar(&sc.host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVarP(&sc.port, "port", "p", 0, "listen port (default from config)")

	return cmd
}

func (sc *serveCommand) run(cmd *cobra.Command, _ []string) (err error) {
	cfg := sc.g.cfg.Server
	if sc.host != "" {
		cfg.Host = sc.host
	}

	if sc.port != 0 {
		cfg.Port = sc.port
	}

	providers, err := observability.Init(sc.g.observability(cmd, observability.ModeServe))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		err = errors.Join(err, providers.Shutdown(context.WithoutCancel(cmd.Context())))
	}()

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return err
	}

	pm, err := observability.NewPatchMetrics(providers.Meter)
	if err != nil {
		return err
	}

	registry := document.NewRegistry(
		document.WithPatchOptions(sc.g.patchOptions()...),
		document.WithDiffOptions(sc.g.diffOptions()...),
		document.WithValidation(sc.g.cfg.Patch.Validate),
		document.WithLogger(providers.Logger),
		document.WithTracer(providers.Tracer),
		document.WithMetrics(pm),
	)

	state, err := server.NewState(cfg)
	if err != nil {
		return err
	}

	if state != nil {
		restored, loadErr := state.Load(cmd.Context(), registry)
		if loadErr != nil {
			providers.Logger.WarnContext(cmd.Context(), "some snapshots were not restored", "error", loadErr)
		}

		providers.Logger.InfoContext(cmd.Context(), "restored documents", "dir", cfg.StateDir, "count", restored)

		defer func() {
			err = errors.Join(err, state.Save(registry))
		}()
	}

	handler := server.New(cfg, server.Deps{
		Registry: registry,
		Logger:   providers.Logger,
		Tracer:   providers.Tracer,
		RED:      red,
		Metrics:  providers.MetricsHandler(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, cfg, handler, providers.Logger)
}
