// Package render prints change lists for people and for machines.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/textpatch/pkg/patch"
	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

// ErrUnsupportedFormat is returned for an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format selects the output encoding.
type Format string

// Output formats.
const (
	FormatTable Format = "table"
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatTable, FormatText, FormatJSON, FormatYAML}

// defaultTextWidth truncates change text in table cells.
const defaultTextWidth = 40

// Options adjusts human-readable output.
type Options struct {
	// Color enables ANSI colors in the text format.
	Color bool
	// TextWidth truncates change text in tables; zero means the default,
	// negative disables truncation.
	TextWidth int
}

// Render writes changes to w in format.
func Render(w io.Writer, changes []patch.Change, format Format, opts Options) error {
	switch format {
	case FormatTable:
		return renderTable(w, changes, opts)
	case FormatText:
		return renderText(w, changes, opts)
	case FormatJSON:
		return renderJSON(w, changes)
	case FormatYAML:
		return renderYAML(w, changes)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Value writes any value as JSON or YAML.
func Value(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, v)
	case FormatYAML:
		return renderYAML(w, v)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func renderTable(w io.Writer, changes []patch.Change, opts Options) error {
	width := opts.TextWidth
	if width == 0 {
		width = defaultTextWidth
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.AppendHeader(table.Row{"#", "Input", "Output", "Text"})

	for i, c := range changes {
		quoted := strconv.Quote(c.Text)
		if width > 0 {
			quoted = truncate(quoted, width)
		}

		tbl.AppendRow(table.Row{
			i + 1,
			span(c.InputStart, c.InputEnd),
			span(c.OutputStart, c.OutputEnd),
			quoted,
		})
	}

	tbl.AppendFooter(table.Row{"", "", "", Summary(changes)})
	tbl.Render()

	return nil
}

// span formats a half-open range as [row:col, row:col).
func span(start, end point.Point) string {
	return "[" + short(start) + ", " + short(end) + ")"
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}

	if width <= 1 {
		return string(runes[:width])
	}

	return string(runes[:width-1]) + "…"
}

// painter returns a color that is on or off according to opts, whatever the
// terminal detection decided.
func painter(opts Options, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if opts.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}

	return c
}

func changedMark(opts Options) string {
	return painter(opts, color.FgYellow).Sprint("(changed)")
}

func renderText(w io.Writer, changes []patch.Change, opts Options) error {
	input := painter(opts, color.FgRed)
	output := painter(opts, color.FgGreen)

	for _, c := range changes {
		_, err := fmt.Fprintf(w, "%s -> %s %q\n",
			input.Sprint("-"+span(c.InputStart, c.InputEnd)),
			output.Sprint("+"+span(c.OutputStart, c.OutputEnd)),
			c.Text,
		)
		if err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, Summary(changes))

	return err
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func renderYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(v)
	if err != nil {
		return err
	}

	return enc.Close()
}

// Summary describes changes in one line, such as "3 changes, 1.2 kB inserted".
func Summary(changes []patch.Change) string {
	var inserted uint64
	for _, c := range changes {
		inserted += uint64(len(c.Text))
	}

	return fmt.Sprintf("%s %s, %s inserted",
		humanize.Comma(int64(len(changes))),
		english.PluralWord(len(changes), "change", ""),
		humanize.Bytes(inserted),
	)
}
