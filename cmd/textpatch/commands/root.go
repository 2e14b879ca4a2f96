// Package commands implements the textpatch subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/textpatch/pkg/config"
	"github.com/Sumatoshi-tech/textpatch/pkg/observability"
	"github.com/Sumatoshi-tech/textpatch/pkg/patch"
	"github.com/Sumatoshi-tech/textpatch/pkg/render"
	"github.com/Sumatoshi-tech/textpatch/pkg/textdiff"
	"github.com/Sumatoshi-tech/textpatch/pkg/version"
)

// globals holds the persistent flags and what PersistentPreRunE derives
// from them.
type globals struct {
	configPath string
	verbose    bool
	logJSON    bool

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the textpatch command tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "textpatch",
		Short: "Track edits to a text and map positions across them",
		Long: `textpatch records the changes that turn one text into another and
translates positions between the two.

Commands:
  diff       List the changes between two files
  translate  Map positions from one file to the other
  replay     Run an edit script
  serve      Serve documents over HTTP`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: g.load,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: ./textpatch.yaml)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "log as JSON")

	root.AddCommand(newDiffCommand(g))
	root.AddCommand(newTranslateCommand(g))
	root.AddCommand(newReplayCommand(g))
	root.AddCommand(newServeCommand(g))
	root.AddCommand(newVersionCommand())

	return root
}

func (g *globals) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return err
	}

	if g.verbose {
		cfg.Logging.Level = "debug"
	}

	if g.logJSON {
		cfg.Logging.Format = "json"
	}

	g.cfg = cfg
	g.logger = observability.NewLogger(g.observability(cmd, observability.ModeCLI))

	return nil
}

// observability translates the loaded configuration for observability.Init.
func (g *globals) observability(cmd *cobra.Command, mode observability.AppMode) observability.Config {
	obs := observability.DefaultConfig()
	obs.ServiceName = g.cfg.Telemetry.ServiceName
	obs.ServiceVersion = version.Version
	obs.Mode = mode
	obs.OTLPEndpoint = g.cfg.Telemetry.OTLPEndpoint
	obs.OTLPHeaders = g.cfg.Telemetry.OTLPHeaders
	obs.OTLPInsecure = g.cfg.Telemetry.Insecure
	obs.SampleRatio = g.cfg.Telemetry.SampleRatio
	obs.TraceVerbose = g.verbose
	obs.LogJSON = g.cfg.Logging.Format == "json"
	obs.LogOutput = cmd.ErrOrStderr()
	obs.ShutdownTimeout = g.cfg.Server.ShutdownTimeout

	level, err := observability.ParseLevel(g.cfg.Logging.Level)
	if err == nil {
		obs.LogLevel = level
	}

	return obs
}

func (g *globals) patchOptions() []patch.Option {
	if g.cfg.Patch.Seed == nil {
		return nil
	}

	return []patch.Option{patch.WithSeed(*g.cfg.Patch.Seed)}
}

func (g *globals) diffOptions() []textdiff.Option {
	return []textdiff.Option{
		textdiff.WithTimeout(g.cfg.Diff.Timeout),
		textdiff.WithLineMode(g.cfg.Diff.LineMode),
		textdiff.WithCleanup(g.cfg.Diff.Cleanup),
	}
}

// outputFlags are shared by the commands that print changes.
type outputFlags struct {
	format  string
	noColor bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "output format: table, text, json, yaml (default from config)")
	cmd.Flags().BoolVar(&o.noColor, "no-color", false, "disable colored output")
}

func (o *outputFlags) resolve(g *globals) (render.Format, render.Options) {
	format := o.format
	if format == "" {
		format = g.cfg.Output.Format
	}

	colored := g.cfg.Output.Color && !o.noColor && !color.NoColor

	return render.Format(format), render.Options{Color: colored}
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return string(data), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String("textpatch"))
		},
	}
}
