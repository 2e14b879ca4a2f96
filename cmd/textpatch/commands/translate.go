package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/textpatch/pkg/point"
	"github.com/Sumatoshi-tech/textpatch/pkg/render"
)

// ErrUnknownSpace is returned when --space is neither input nor output.
var ErrUnknownSpace = errors.New("space must be input or output")

const (
	spaceInput  = "input"
	spaceOutput = "output"
)

type translateCommand struct {
	g         *globals
	output    outputFlags
	space     string
	positions []string
}

func newTranslateCommand(g *globals) *cobra.Command {
	tc := &translateCommand{g: g}

	cmd := &cobra.Command{
		Use:   "translate OLD NEW --position ROW:COL...",
		Short: "Map positions between OLD and NEW",
		Long: `Map positions in OLD to NEW (--space input) or in NEW to OLD
(--space output). A position inside a changed region maps to no further
than the end of that region.

Examples:
  textpatch translate before.txt after.txt -p 3:0 -p 10:4
  textpatch translate before.txt after.txt --space output -p 2:7`,
		Args: cobra.ExactArgs(pairArgCount),
		RunE: tc.run,
	}

	cmd.Flags().StringVar(&tc.space, "space", spaceInput, "space the positions are given in: input or output")
	cmd.Flags().StringArrayVarP(&tc.positions, "position", "p", nil, "position as ROW:COL (repeatable)")
	tc.output.register(cmd)

	_ = cmd.MarkFlagRequired("position")

	return cmd
}

func (tc *translateCommand) run(cmd *cobra.Command, args []string) error {
	if tc.space != spaceInput && tc.space != spaceOutput {
		return fmt.Errorf("%w: %q", ErrUnknownSpace, tc.space)
	}

	positions := make([]point.Point, 0, len(tc.positions))

	for _, raw := range tc.positions {
		pos, err := point.Parse(raw)
		if err != nil {
			return err
		}

		positions = append(positions, pos)
	}

	p, err := buildPatch(cmd.Context(), tc.g, args[0], args[1])
	if err != nil {
		return err
	}

	rows := make([]render.Translation, 0, len(positions))

	for _, pos := range positions {
		row := render.Translation{Space: tc.space, Position: pos}

		if tc.space == spaceInput {
			row.Translated = p.TranslateInputPosition(pos)
			row.Changed = p.IsChangedAtInputPosition(pos)
		} else {
			row.Translated = p.TranslateOutputPosition(pos)
			row.Changed = p.IsChangedAtOutputPosition(pos)
		}

		rows = append(rows, row)
	}

	format, opts := tc.output.resolve(tc.g)

	return render.Translations(cmd.OutOrStdout(), rows, format, opts)
}
