package patch

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

// ErrInvalidChanges reports a change list that no Patch could have produced.
var ErrInvalidChanges = errors.New("patch: invalid change list")

// Source supplies the random part of node priorities. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Option configures a Patch.
type Option func(*Patch)

// WithSeed makes the tree shape reproducible: two patches built with the same
// seed and fed the same edits have identical trees.
func WithSeed(seed uint64) Option {
	return func(p *Patch) {
		p.source = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithRandom draws priorities from src.
func WithRandom(src Source) Option {
	return func(p *Patch) {
		p.source = src
	}
}

// Patch records the changes that turn an input text into an output text and
// translates positions between the two. The zero value is an empty Patch that
// draws priorities from the global generator.
//
// A Patch is not safe for concurrent use. Splice and SpliceInput break the
// tree's invariants while they run and restore them before returning, so all
// access to one Patch must be serialized by the caller.
type Patch struct {
	root   *node
	source Source
}

// New returns an empty Patch.
func New(opts ...Option) *Patch {
	p := &Patch{}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Patch) randomPriority() priority {
	if p.source == nil {
		return priority{class: random, value: rand.Float64()}
	}

	return priority{class: random, value: p.source.Float64()}
}

func (p *Patch) cursor() *cursor {
	return &cursor{patch: p}
}

func mustBeValid(name string, pts ...point.Point) {
	for _, pt := range pts {
		if !pt.Valid() {
			panic(fmt.Sprintf("patch: %s: invalid point %v", name, pt))
		}
	}
}

// Splice records that the output text in [outputStart, outputStart+replacedExtent)
// was replaced by text, whose extent is replacementExtent. Changes inside the
// replaced range are discarded; changes overlapping or touching it are merged
// into one.
func (p *Patch) Splice(outputStart, replacedExtent, replacementExtent point.Point, text string) {
	mustBeValid("Splice", outputStart, replacedExtent, replacementExtent)

	outputOldEnd := point.Traverse(outputStart, replacedExtent)
	outputNewEnd := point.Traverse(outputStart, replacementExtent)

	c := p.cursor()
	startNode, prefix := c.insertSpliceStart(outputStart)
	endNode, suffix, suffixExtent := c.insertSpliceEnd(outputOldEnd, startNode)
	startNode.isChangeStart = true

	p.isolate(startNode, endNode)

	endNode.outputLeftExtent = point.Traverse(outputNewEnd, suffixExtent)
	endNode.outputExtent = point.Traverse(endNode.outputLeftExtent, endNode.rightOutputExtent())
	endNode.changeText = prefix + text + suffix

	startNode.priority = p.randomPriority()
	p.bubbleDown(startNode)

	endNode.priority = p.randomPriority()
	p.bubbleDown(endNode)
}

// SpliceWithText is Splice with the replacement extent measured from text.
func (p *Patch) SpliceWithText(outputStart, replacedExtent point.Point, text string) {
	p.Splice(outputStart, replacedExtent, point.ExtentOf(text), text)
}

// SpliceInput records that the input text in [inputStart, inputStart+replacedExtent)
// was replaced by text of extent replacementExtent, as when the original
// document changes underneath the patch. The edit passes through to the output
// unchanged. A change the edit reaches into is dropped: the range it covered
// reverts to the new input text.
func (p *Patch) SpliceInput(inputStart, replacedExtent, replacementExtent point.Point) {
	mustBeValid("SpliceInput", inputStart, replacedExtent, replacementExtent)

	inputOldEnd := point.Traverse(inputStart, replacedExtent)

	c := p.cursor()
	startNode, headOverflow := c.insertInputStart(inputStart)
	endNode, tailOverflow := c.insertInputEnd(inputOldEnd, startNode)

	// A boundary that snapped outward widens the replacement by the part of
	// the change it swallowed.
	replacement := point.Traverse(point.Traverse(headOverflow, replacementExtent), tailOverflow)

	p.isolate(startNode, endNode)

	endNode.inputLeftExtent = point.Traverse(startNode.inputLeftExtent, replacement)
	endNode.inputExtent = point.Traverse(endNode.inputLeftExtent, endNode.rightInputExtent())
	endNode.outputLeftExtent = point.Traverse(startNode.outputLeftExtent, replacement)
	endNode.outputExtent = point.Traverse(endNode.outputLeftExtent, endNode.rightOutputExtent())

	if startNode.isChangeStart {
		p.deleteNode(startNode)
	} else {
		startNode.priority = p.randomPriority()
		p.bubbleDown(startNode)
	}

	if endNode.isChangeStart {
		endNode.priority = p.randomPriority()
		p.bubbleDown(endNode)
	} else {
		p.deleteNode(endNode)
	}
}

// isolate lifts endNode to the root with startNode as its left child and
// drops every boundary between them.
func (p *Patch) isolate(startNode, endNode *node) {
	startNode.priority = priority{class: pinNearTop}
	p.bubbleUp(startNode)

	endNode.priority = priority{class: pinTop}
	p.bubbleUp(endNode)

	if startNode.parent != endNode || endNode.left != startNode {
		panic("patch: splice boundaries out of order")
	}

	if startNode.right != nil {
		startNode.right.parent = nil
		startNode.right = nil
	}

	startNode.inputExtent = startNode.inputLeftExtent
	startNode.outputExtent = startNode.outputLeftExtent
}

// IsChangedAtInputPosition reports whether pos lies inside a change, in input
// coordinates. Changes are half-open: a change's end is not inside it.
func (p *Patch) IsChangedAtInputPosition(pos point.Point) bool {
	c := p.cursor()
	c.seekToInputPosition(pos)

	return c.inChange()
}

// IsChangedAtOutputPosition is IsChangedAtInputPosition in output coordinates.
func (p *Patch) IsChangedAtOutputPosition(pos point.Point) bool {
	c := p.cursor()
	c.seekToOutputPosition(pos)

	return c.inChange()
}

// TranslateInputPosition maps an input position to the output. A position
// inside a change maps to no further than the change's output end.
func (p *Patch) TranslateInputPosition(pos point.Point) point.Point {
	c := p.cursor()
	c.seekToInputPosition(pos)

	overshoot := point.TraversalDistance(pos, c.inputStart)

	return point.Min(point.Traverse(c.outputStart, overshoot), c.outputEnd)
}

// TranslateOutputPosition maps an output position to the input. A position
// inside a change maps to no further than the change's input end.
func (p *Patch) TranslateOutputPosition(pos point.Point) point.Point {
	c := p.cursor()
	c.seekToOutputPosition(pos)

	overshoot := point.TraversalDistance(pos, c.outputStart)

	return point.Min(point.Traverse(c.inputStart, overshoot), c.inputEnd)
}

// Changes returns the recorded changes in document order.
func (p *Patch) Changes() []Change {
	return p.cursor().changes()
}

// Len returns the number of recorded changes.
func (p *Patch) Len() int {
	n := 0

	for at := range p.cursor().boundaries() {
		if at.node.isChangeStart {
			n++
		}
	}

	return n
}

// Nodes returns the number of boundaries in the tree.
func (p *Patch) Nodes() int {
	return countNodes(p.root)
}

func countNodes(x *node) int {
	if x == nil {
		return 0
	}

	return 1 + countNodes(x.left) + countNodes(x.right)
}

// Clear removes every change.
func (p *Patch) Clear() {
	p.root = nil
}

// Clone returns a deep copy that shares nothing with p but its Source.
func (p *Patch) Clone() *Patch {
	return &Patch{root: cloneNode(p.root, nil), source: p.source}
}

func cloneNode(x, parent *node) *node {
	if x == nil {
		return nil
	}

	out := *x
	out.parent = parent
	out.left = cloneNode(x.left, &out)
	out.right = cloneNode(x.right, &out)

	return &out
}

// Rebuild replaces p's contents with changes, which must be ordered and
// separated by unchanged regions of equal extent in both spaces, as Changes
// returns them. Touching changes stay separate, so the rebuilt Patch answers
// every query exactly as the one the changes came from. On error p is left
// as it was.
func (p *Patch) Rebuild(changes []Change) error {
	work := &Patch{source: p.source}

	var (
		last          *node
		input, output point.Point
	)

	for i, c := range changes {
		err := checkChange(c, input, output)
		if err != nil {
			return fmt.Errorf("%w: change %d %v: %w", ErrInvalidChanges, i, c, err)
		}

		start := work.insertAfter(last, input, output, c.InputStart, c.OutputStart)
		start.isChangeStart = true

		end := work.insertAfter(start, c.InputStart, c.OutputStart, c.InputEnd, c.OutputEnd)
		end.changeText = c.Text

		last, input, output = end, c.InputEnd, c.OutputEnd
	}

	p.root = work.root

	return nil
}

// checkChange reports why c cannot follow a change ending at (input, output).
func checkChange(c Change, input, output point.Point) error {
	for _, pt := range []point.Point{c.InputStart, c.InputEnd, c.OutputStart, c.OutputEnd} {
		if !pt.Valid() || pt.IsInfinite() {
			return fmt.Errorf("%w: %v", point.ErrInvalidPoint, pt)
		}
	}

	switch {
	case c.InputStart.Less(input) || c.OutputStart.Less(output):
		return errors.New("overlaps the change before it")
	case c.InputEnd.Less(c.InputStart) || c.OutputEnd.Less(c.OutputStart):
		return errors.New("ends before it starts")
	case point.TraversalDistance(c.InputStart, input) != point.TraversalDistance(c.OutputStart, output):
		return errors.New("unchanged text before it differs between input and output")
	}

	return nil
}
