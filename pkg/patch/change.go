package patch

import (
	"fmt"

	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

// Change is one edited region: the input text in [InputStart, InputEnd) was
// replaced by Text, which spans [OutputStart, OutputEnd) in the output.
type Change struct {
	InputStart  point.Point `json:"input_start"  yaml:"input_start"`
	InputEnd    point.Point `json:"input_end"    yaml:"input_end"`
	OutputStart point.Point `json:"output_start" yaml:"output_start"`
	OutputEnd   point.Point `json:"output_end"   yaml:"output_end"`
	Text        string      `json:"text"         yaml:"text"`
}

// OldExtent is the extent of the replaced input text.
func (c Change) OldExtent() point.Point {
	return point.TraversalDistance(c.InputEnd, c.InputStart)
}

// NewExtent is the extent of the replacement text in the output.
func (c Change) NewExtent() point.Point {
	return point.TraversalDistance(c.OutputEnd, c.OutputStart)
}

func (c Change) String() string {
	return fmt.Sprintf("input [%v, %v) -> output [%v, %v) %q",
		c.InputStart, c.InputEnd, c.OutputStart, c.OutputEnd, c.Text)
}
