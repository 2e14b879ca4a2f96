package patch

import (
	"iter"

	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

// A locus is a boundary node together with its absolute positions.
type locus struct {
	node   *node
	input  point.Point
	output point.Point
}

// cursor finds and creates boundaries. Seek operations leave it positioned on
// the region that contains the sought position; the nodes it holds are only
// valid until the next splice.
type cursor struct {
	patch *Patch

	current     *node
	inputStart  point.Point
	outputStart point.Point
	inputEnd    point.Point
	outputEnd   point.Point
}

// search descends from the root. before must be monotone over the tree
// order: true for a prefix of the boundaries, false for the rest. search
// returns the last boundary for which before holds and the first for which
// it does not; either may be empty.
func (c *cursor) search(before func(input, output point.Point) bool) (lo, hi locus) {
	var inputBase, outputBase point.Point

	for x := c.patch.root; x != nil; {
		at := locus{
			node:   x,
			input:  point.Traverse(inputBase, x.inputLeftExtent),
			output: point.Traverse(outputBase, x.outputLeftExtent),
		}

		if before(at.input, at.output) {
			lo = at
			inputBase, outputBase = at.input, at.output
			x = x.right
		} else {
			hi = at
			x = x.left
		}
	}

	return lo, hi
}

// locate computes the absolute positions of x by walking up to the root.
func locate(x *node) locus {
	if x == nil {
		return locus{}
	}

	var path []*node
	for n := x; n.parent != nil; n = n.parent {
		path = append(path, n)
	}

	var input, output point.Point

	for i := len(path) - 1; i >= 0; i-- {
		child := path[i]
		if parent := child.parent; parent.right == child {
			input = point.Traverse(input, parent.inputLeftExtent)
			output = point.Traverse(output, parent.outputLeftExtent)
		}
	}

	return locus{
		node:   x,
		input:  point.Traverse(input, x.inputLeftExtent),
		output: point.Traverse(output, x.outputLeftExtent),
	}
}

// insertInGapAtInput creates a boundary right after prev at input, mapping it
// to the output space through the unchanged region that follows prev.
func (c *cursor) insertInGapAtInput(prev locus, input point.Point) *node {
	output := point.Traverse(prev.output, point.TraversalDistance(input, prev.input))

	return c.patch.insertAfter(prev.node, prev.input, prev.output, input, output)
}

// insertInGapAtOutput is insertInGapAtInput keyed by an output position.
func (c *cursor) insertInGapAtOutput(prev locus, output point.Point) *node {
	input := point.Traverse(prev.input, point.TraversalDistance(output, prev.output))

	return c.patch.insertAfter(prev.node, prev.input, prev.output, input, output)
}

// insertSpliceStart returns the boundary where a splice starting at output
// begins. A change that contains output, or ends exactly there, is absorbed:
// its start boundary is returned together with the part of its text before
// output.
func (c *cursor) insertSpliceStart(output point.Point) (*node, string) {
	lo, hi := c.search(func(_, out point.Point) bool { return out.Less(output) })

	switch {
	case lo.node != nil && lo.node.isChangeStart:
		prefix, _ := point.Split(hi.node.changeText, point.TraversalDistance(output, lo.output))

		return lo.node, prefix
	case hi.node != nil && hi.output == output:
		return hi.node, ""
	default:
		return c.insertInGapAtOutput(lo, output), ""
	}
}

// insertSpliceEnd returns the boundary where a splice ending at output stops.
// start is the boundary returned by insertSpliceStart. A change that contains
// output, or starts exactly there, is absorbed: its end boundary is returned
// with the part of its text after output and that part's output extent.
func (c *cursor) insertSpliceEnd(output point.Point, start *node) (*node, string, point.Point) {
	lo, hi := c.search(func(_, out point.Point) bool { return !output.Less(out) })

	switch {
	case lo.node == nil:
		panic("patch: splice end sorts before its start")
	case lo.node.isChangeStart:
		_, suffix := point.Split(hi.node.changeText, point.TraversalDistance(output, lo.output))

		return hi.node, suffix, point.TraversalDistance(hi.output, output)
	case lo.node != start && lo.output == output:
		return lo.node, "", point.Zero
	default:
		return c.insertInGapAtOutput(lo, output), "", point.Zero
	}
}

// insertInputStart returns the boundary where an input splice starting at
// input begins. When input falls strictly inside a change the change's start
// is returned, along with the input distance from it to input.
func (c *cursor) insertInputStart(input point.Point) (*node, point.Point) {
	lo, _ := c.search(func(in, _ point.Point) bool { return !input.Less(in) })

	switch {
	case lo.node == nil:
		return c.insertInGapAtInput(lo, input), point.Zero
	case !lo.node.isChangeStart:
		if lo.input == input {
			return lo.node, point.Zero
		}

		return c.insertInGapAtInput(lo, input), point.Zero
	case lo.input != input:
		return lo.node, point.TraversalDistance(input, lo.input)
	}

	// A change starts exactly at input. Stay in front of it.
	prev := locate(lo.node.prev())
	if prev.node != nil && prev.input == input {
		return prev.node, point.Zero
	}

	return c.insertInGapAtInput(prev, input), point.Zero
}

// insertInputEnd returns the boundary where an input splice ending at input
// stops. start is the boundary returned by insertInputStart. When input falls
// strictly inside a change the change's end is returned, along with the input
// distance from input to it.
func (c *cursor) insertInputEnd(input point.Point, start *node) (*node, point.Point) {
	startAt := locate(start)

	var hi locus
	if input == startAt.input {
		hi = locate(start.next())
	} else {
		_, hi = c.search(func(in, _ point.Point) bool { return in.Less(input) })
	}

	var prev locus
	if hi.node == nil {
		prev = locate(c.patch.root.maxNode())
	} else {
		prev = locate(hi.node.prev())
	}

	switch {
	case hi.node == nil:
		return c.insertInGapAtInput(prev, input), point.Zero
	case hi.input == input:
		return hi.node, point.Zero
	case !hi.node.isChangeStart && prev.node != nil && prev.node.isChangeStart:
		return hi.node, point.TraversalDistance(hi.input, input)
	default:
		return c.insertInGapAtInput(prev, input), point.Zero
	}
}

// seek positions the cursor on the region containing the sought position.
// before reports whether a boundary lies at or before it.
func (c *cursor) seek(before func(input, output point.Point) bool) {
	lo, hi := c.search(before)

	c.current = lo.node
	c.inputStart, c.outputStart = lo.input, lo.output

	if hi.node == nil {
		c.inputEnd, c.outputEnd = point.Infinity, point.Infinity
	} else {
		c.inputEnd, c.outputEnd = hi.input, hi.output
	}
}

func (c *cursor) seekToInputPosition(input point.Point) {
	c.seek(func(in, _ point.Point) bool { return !input.Less(in) })
}

func (c *cursor) seekToOutputPosition(output point.Point) {
	c.seek(func(_, out point.Point) bool { return !output.Less(out) })
}

// inChange reports whether the last sought position lies inside a change.
func (c *cursor) inChange() bool {
	return c.current != nil && c.current.isChangeStart
}

// boundaries yields every boundary in tree order with its positions.
func (c *cursor) boundaries() iter.Seq[locus] {
	return func(yield func(locus) bool) {
		walk(c.patch.root, point.Zero, point.Zero, yield)
	}
}

func walk(x *node, inputBase, outputBase point.Point, yield func(locus) bool) bool {
	if x == nil {
		return true
	}

	if !walk(x.left, inputBase, outputBase, yield) {
		return false
	}

	at := locus{
		node:   x,
		input:  point.Traverse(inputBase, x.inputLeftExtent),
		output: point.Traverse(outputBase, x.outputLeftExtent),
	}

	if !yield(at) {
		return false
	}

	return walk(x.right, at.input, at.output, yield)
}

// changes pairs every change start with the boundary that follows it.
func (c *cursor) changes() []Change {
	var (
		result []Change
		start  locus
		open   bool
	)

	for at := range c.boundaries() {
		if open {
			result = append(result, Change{
				InputStart:  start.input,
				InputEnd:    at.input,
				OutputStart: start.output,
				OutputEnd:   at.output,
				Text:        at.node.changeText,
			})
		}

		start, open = at, at.node.isChangeStart
	}

	return result
}
