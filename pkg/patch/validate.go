package patch

import (
	"fmt"

	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

// Validate panics if the tree is inconsistent: broken parent links, heap
// order, pinned priorities, stored extents that disagree with the subtrees, boundaries out of
// order in either space, or change markers that do not pair up.
func (p *Patch) Validate() {
	if p.root == nil {
		return
	}

	if p.root.parent != nil {
		panic("root has a parent")
	}

	validateNode(p.root)

	var (
		prev    locus
		hasPrev bool
	)

	for at := range p.cursor().boundaries() {
		if hasPrev {
			validateRegion(prev, at)
		} else if at.node.changeText != "" {
			panic(fmt.Sprintf("first boundary at %v carries change text", at.input))
		}

		prev, hasPrev = at, true
	}

	if prev.node.isChangeStart {
		panic(fmt.Sprintf("change starting at input %v has no end", prev.input))
	}
}

// validateNode checks the subtree rooted at x and returns its extents.
func validateNode(x *node) (input, output point.Point) {
	if x == nil {
		return point.Zero, point.Zero
	}

	if x.priority.class != random {
		panic(fmt.Sprintf("pinned priority %v left on a boundary", x.priority))
	}

	for _, child := range []*node{x.left, x.right} {
		if child == nil {
			continue
		}

		if child.parent != x {
			panic("child does not point back at its parent")
		}

		if child.priority.less(x.priority) {
			panic(fmt.Sprintf("heap order broken: child %v above parent %v", child.priority, x.priority))
		}
	}

	leftInput, leftOutput := validateNode(x.left)
	if x.inputLeftExtent.Less(leftInput) || x.outputLeftExtent.Less(leftOutput) {
		panic(fmt.Sprintf("left extent (%v, %v) shorter than left subtree (%v, %v)",
			x.inputLeftExtent, x.outputLeftExtent, leftInput, leftOutput))
	}

	rightInput, rightOutput := validateNode(x.right)
	input = point.Traverse(x.inputLeftExtent, rightInput)
	output = point.Traverse(x.outputLeftExtent, rightOutput)

	if x.inputExtent != input || x.outputExtent != output {
		panic(fmt.Sprintf("stored extent (%v, %v) != computed (%v, %v)",
			x.inputExtent, x.outputExtent, input, output))
	}

	return input, output
}

// validateRegion checks the region between two consecutive boundaries.
func validateRegion(from, to locus) {
	if to.input.Less(from.input) || to.output.Less(from.output) {
		panic(fmt.Sprintf("boundary at (%v, %v) sorts before its predecessor at (%v, %v)",
			to.input, to.output, from.input, from.output))
	}

	if from.node.isChangeStart {
		if to.node.isChangeStart {
			panic(fmt.Sprintf("change starting at input %v ends on another change start", from.input))
		}

		return
	}

	if to.node.changeText != "" {
		panic(fmt.Sprintf("boundary at input %v carries text outside a change", to.input))
	}

	inputDistance := point.TraversalDistance(to.input, from.input)
	outputDistance := point.TraversalDistance(to.output, from.output)

	if inputDistance != outputDistance {
		panic(fmt.Sprintf("unchanged region at input %v spans %v in input but %v in output",
			from.input, inputDistance, outputDistance))
	}
}
