package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/textpatch/pkg/patch"
	"github.com/Sumatoshi-tech/textpatch/pkg/render"
	"github.com/Sumatoshi-tech/textpatch/pkg/textdiff"
)

// pairArgCount is the number of files diff and translate compare.
const pairArgCount = 2

type diffCommand struct {
	g      *globals
	output outputFlags
}

func newDiffCommand(g *globals) *cobra.Command {
	dc := &diffCommand{g: g}

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "List the changes that turn OLD into NEW",
		Long: `List the changes that turn OLD into NEW, as the patch records them.

Examples:
  textpatch diff before.txt after.txt
  textpatch diff -f json before.txt after.txt`,
		Args: cobra.ExactArgs(pairArgCount),
		RunE: dc.run,
	}

	dc.output.register(cmd)

	return cmd
}

func (dc *diffCommand) run(cmd *cobra.Command, args []string) error {
	p, err := buildPatch(cmd.Context(), dc.g, args[0], args[1])
	if err != nil {
		return err
	}

	format, opts := dc.output.resolve(dc.g)

	return render.Render(cmd.OutOrStdout(), p.Changes(), format, opts)
}

// buildPatch diffs two files into a patch from the first to the second.
func buildPatch(ctx context.Context, g *globals, oldPath, newPath string) (*patch.Patch, error) {
	oldText, err := readFile(oldPath)
	if err != nil {
		return nil, err
	}

	newText, err := readFile(newPath)
	if err != nil {
		return nil, err
	}

	edits := textdiff.Edits(oldText, newText, g.diffOptions()...)

	g.logger.DebugContext(ctx, "diffed", "old", oldPath, "new", newPath, "edits", len(edits))

	p := patch.New(g.patchOptions()...)
	textdiff.Apply(p, edits)

	if g.cfg.Patch.Validate {
		err = validatePatch(p)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

func validatePatch(p *patch.Patch) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("patch invariant broken: %v", r)
		}
	}()

	p.Validate()

	return nil
}
