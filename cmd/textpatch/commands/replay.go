package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/textpatch/pkg/point"
	"github.com/Sumatoshi-tech/textpatch/pkg/render"
	"github.com/Sumatoshi-tech/textpatch/pkg/script"
)

type replayCommand struct {
	g      *globals
	output outputFlags
}

func newReplayCommand(g *globals) *cobra.Command {
	rc := &replayCommand{g: g}

	cmd := &cobra.Command{
		Use:   "replay SCRIPT",
		Short: "Run an edit script and print its answers",
		Long: `Run a YAML or JSON edit script against an empty patch and print the
answers to its queries followed by the final changes. Use - to read a YAML
script from stdin.

Examples:
  textpatch replay testdata/insert.yaml
  textpatch replay -f json script.json`,
		Args: cobra.ExactArgs(1),
		RunE: rc.run,
	}

	rc.output.register(cmd)

	return cmd
}

func (rc *replayCommand) run(cmd *cobra.Command, args []string) error {
	s, err := loadScript(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	opts := []script.RunOption{script.WithLogger(rc.g.logger)}
	if rc.g.cfg.Patch.Validate {
		opts = append(opts, script.WithValidation())
	}

	report, err := script.Run(cmd.Context(), s, opts...)
	if err != nil {
		return err
	}

	format, renderOpts := rc.output.resolve(rc.g)
	out := cmd.OutOrStdout()

	switch format {
	case render.FormatJSON, render.FormatYAML:
		return render.Value(out, report, format)
	case render.FormatTable, render.FormatText:
		return printReport(out, report, format, renderOpts)
	default:
		return fmt.Errorf("%w: %q", render.ErrUnsupportedFormat, format)
	}
}

func loadScript(stdin io.Reader, path string) (*script.Script, error) {
	if path == "-" {
		return script.Load(stdin, script.FormatYAML)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	return script.Load(f, script.FormatFromPath(path))
}

// printReport writes one line per query answer, then the final change list.
func printReport(w io.Writer, report *script.Report, format render.Format, opts render.Options) error {
	for _, result := range report.Results {
		var err error

		switch {
		case result.Translated != nil:
			_, err = fmt.Fprintf(w, "step %d: translate %s %s -> %s\n",
				result.Step, result.Space, short(*result.Position), short(*result.Translated))
		case result.Changed != nil:
			_, err = fmt.Fprintf(w, "step %d: changed %s %s: %t\n",
				result.Step, result.Space, short(*result.Position), *result.Changed)
		default:
			_, err = fmt.Fprintf(w, "step %d: %s\n", result.Step, render.Summary(result.Changes))
		}

		if err != nil {
			return err
		}
	}

	return render.Render(w, report.Changes, format, opts)
}

func short(p point.Point) string {
	return fmt.Sprintf("%d:%d", p.Row, p.Column)
}
