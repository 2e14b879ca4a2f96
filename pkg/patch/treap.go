package patch

// The tree is a treap. See:
// https://en.wikipedia.org/wiki/Treap
// https://faculty.washington.edu/aragon/pubs/rst89.pdf
//
// Rotations keep both extent pairs current in O(1) by recombining the
// pivot's and the old root's fields; nothing is recomputed by walking a
// subtree.

import "github.com/Sumatoshi-tech/textpatch/pkg/point"

// bubbleUp rotates x toward the root while its priority beats its parent's.
func (p *Patch) bubbleUp(x *node) {
	for x.parent != nil && x.priority.less(x.parent.priority) {
		if x.isLeftChild() {
			p.rotateRight(x)
		} else {
			p.rotateLeft(x)
		}
	}
}

// bubbleDown rotates the better of x's children above x until neither child
// beats x.
func (p *Patch) bubbleDown(x *node) {
	for {
		switch {
		case x.left != nil && x.left.priority.less(x.priority) &&
			(x.right == nil || x.left.priority.less(x.right.priority)):
			p.rotateRight(x.left)
		case x.right != nil && x.right.priority.less(x.priority):
			p.rotateLeft(x.right)
		default:
			return
		}
	}
}

// replaceChild points whatever referenced old (its parent or the root) at x.
func (p *Patch) replaceChild(old, x *node) {
	switch {
	case old.parent == nil:
		p.root = x
	case old.parent.left == old:
		old.parent.left = x
	default:
		old.parent.right = x
	}

	x.parent = old.parent
}

// rotateLeft lifts pivot, a right child, above its parent.
func (p *Patch) rotateLeft(pivot *node) {
	root := pivot.parent
	if root == nil || root.right != pivot {
		panic("patch: rotateLeft of a node that is not a right child")
	}

	p.replaceChild(root, pivot)

	root.right = pivot.left
	if root.right != nil {
		root.right.parent = root
	}

	pivot.left = root
	root.parent = pivot

	pivot.inputLeftExtent = point.Traverse(root.inputLeftExtent, pivot.inputLeftExtent)
	pivot.inputExtent = point.Traverse(pivot.inputLeftExtent, pivot.rightInputExtent())
	root.inputExtent = point.Traverse(root.inputLeftExtent, root.rightInputExtent())

	pivot.outputLeftExtent = point.Traverse(root.outputLeftExtent, pivot.outputLeftExtent)
	pivot.outputExtent = point.Traverse(pivot.outputLeftExtent, pivot.rightOutputExtent())
	root.outputExtent = point.Traverse(root.outputLeftExtent, root.rightOutputExtent())
}

// rotateRight lifts pivot, a left child, above its parent.
func (p *Patch) rotateRight(pivot *node) {
	root := pivot.parent
	if root == nil || root.left != pivot {
		panic("patch: rotateRight of a node that is not a left child")
	}

	p.replaceChild(root, pivot)

	root.left = pivot.right
	if root.left != nil {
		root.left.parent = root
	}

	pivot.right = root
	root.parent = pivot

	root.inputLeftExtent = point.TraversalDistance(root.inputLeftExtent, pivot.inputLeftExtent)
	root.inputExtent = point.TraversalDistance(root.inputExtent, pivot.inputLeftExtent)
	pivot.inputExtent = point.Traverse(pivot.inputLeftExtent, root.inputExtent)

	root.outputLeftExtent = point.TraversalDistance(root.outputLeftExtent, pivot.outputLeftExtent)
	root.outputExtent = point.TraversalDistance(root.outputExtent, pivot.outputLeftExtent)
	pivot.outputExtent = point.Traverse(pivot.outputLeftExtent, root.outputExtent)
}

// deleteNode sinks x to a leaf and unlinks it. The boundaries around x keep
// their positions; the region x opened merges into the one before it.
func (p *Patch) deleteNode(x *node) {
	x.priority = priority{class: pinBottom}
	p.bubbleDown(x)

	parent := x.parent
	switch {
	case parent == nil:
		p.root = nil
	case parent.left == x:
		parent.left = nil
	default:
		parent.right = nil
		parent.inputExtent = parent.inputLeftExtent
		parent.outputExtent = parent.outputLeftExtent

		for ancestor := parent; ancestor.parent != nil && ancestor.parent.right == ancestor; ancestor = ancestor.parent {
			ancestor.parent.inputExtent = point.Traverse(ancestor.parent.inputLeftExtent, ancestor.inputExtent)
			ancestor.parent.outputExtent = point.Traverse(ancestor.parent.outputLeftExtent, ancestor.outputExtent)
		}
	}

	x.parent = nil
}

// insertAfter links a new leaf boundary at (input, output) immediately after
// prev in tree order, or first in the tree when prev is nil. prevInput and
// prevOutput are prev's positions. The caller must make sure the new boundary
// falls between prev and its successor in both spaces.
func (p *Patch) insertAfter(prev *node, prevInput, prevOutput, input, output point.Point) *node {
	x := &node{
		inputLeftExtent:  point.TraversalDistance(input, prevInput),
		outputLeftExtent: point.TraversalDistance(output, prevOutput),
		priority:         p.randomPriority(),
	}
	x.inputExtent = x.inputLeftExtent
	x.outputExtent = x.outputLeftExtent

	// The new leaf's subtree starts right after prev, so its left extents are
	// measured from prev's boundary whichever side it is attached on.
	switch {
	case p.root == nil:
		p.root = x

		return x
	case prev == nil:
		first := p.root.minNode()
		first.left = x
		x.parent = first
	case prev.right == nil:
		prev.right = x
		x.parent = prev
	default:
		succ := prev.right.minNode()
		succ.left = x
		x.parent = succ
	}

	for ancestor := x.parent; ancestor != nil; ancestor = ancestor.parent {
		ancestor.inputExtent = point.Traverse(ancestor.inputLeftExtent, ancestor.rightInputExtent())
		ancestor.outputExtent = point.Traverse(ancestor.outputLeftExtent, ancestor.rightOutputExtent())
	}

	p.bubbleUp(x)

	return x
}
