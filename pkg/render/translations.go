package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

// Translation is one answered position query.
type Translation struct {
	Space      string      `json:"space"      yaml:"space"`
	Position   point.Point `json:"position"   yaml:"position"`
	Translated point.Point `json:"translated" yaml:"translated"`
	Changed    bool        `json:"changed"    yaml:"changed"`
}

// Translations writes position queries and their answers to w.
func Translations(w io.Writer, rows []Translation, format Format, opts Options) error {
	switch format {
	case FormatJSON, FormatYAML:
		return Value(w, rows, format)
	case FormatTable:
		tbl := table.NewWriter()
		tbl.SetOutputMirror(w)
		tbl.SetStyle(table.StyleLight)
		tbl.AppendHeader(table.Row{"Space", "Position", "Translated", "Changed"})

		for _, row := range rows {
			tbl.AppendRow(table.Row{row.Space, short(row.Position), short(row.Translated), row.Changed})
		}

		tbl.Render()

		return nil
	case FormatText:
		for _, row := range rows {
			line := fmt.Sprintf("%s %s -> %s", row.Space, short(row.Position), short(row.Translated))
			if row.Changed {
				line += " " + changedMark(opts)
			}

			_, err := fmt.Fprintln(w, line)
			if err != nil {
				return err
			}
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func short(p point.Point) string {
	return fmt.Sprintf("%d:%d", p.Row, p.Column)
}
