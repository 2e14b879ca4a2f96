package patch

import "github.com/Sumatoshi-tech/textpatch/pkg/point"

// priorityClass orders the pinned priorities around the randomly drawn ones.
// Lower classes sit closer to the root.
type priorityClass uint8

const (
	// pinTop outranks everything; the end boundary of a splice is lifted with it.
	pinTop priorityClass = iota
	// pinNearTop outranks every random priority but not pinTop.
	pinNearTop
	// random priorities come from the Patch's Source.
	random
	// pinBottom sinks a node below every other node so it can be unlinked.
	pinBottom
)

// priority is a min-heap key: a parent's priority is never greater than its children's.
type priority struct {
	class priorityClass
	value float64
}

func (p priority) less(q priority) bool {
	if p.class != q.class {
		return p.class < q.class
	}

	return p.value < q.value
}

// node is a boundary in the treap. The boundary's position is the sum of the
// left extents on the path from the root, in each coordinate space.
type node struct {
	parent *node
	left   *node
	right  *node

	// inputLeftExtent and outputLeftExtent lead from the start of this node's
	// subtree to the node's own boundary.
	inputLeftExtent  point.Point
	outputLeftExtent point.Point

	// inputExtent and outputExtent span the whole subtree, up to the boundary
	// of its last node.
	inputExtent  point.Point
	outputExtent point.Point

	priority priority

	// isChangeStart marks the region that follows this boundary as changed.
	isChangeStart bool

	// changeText holds the output text of the change that ends at this boundary.
	changeText string
}

// rightInputExtent is the input extent of the right subtree.
func (n *node) rightInputExtent() point.Point {
	if n.right == nil {
		return point.Zero
	}

	return n.right.inputExtent
}

// rightOutputExtent is the output extent of the right subtree.
func (n *node) rightOutputExtent() point.Point {
	if n.right == nil {
		return point.Zero
	}

	return n.right.outputExtent
}

// isLeftChild reports whether n hangs on its parent's left.
func (n *node) isLeftChild() bool {
	return n.parent != nil && n.parent.left == n
}

// minNode returns the first node in n's subtree.
func (n *node) minNode() *node {
	for n.left != nil {
		n = n.left
	}

	return n
}

// maxNode returns the last node in n's subtree.
func (n *node) maxNode() *node {
	for n.right != nil {
		n = n.right
	}

	return n
}

// next returns the in-order successor of n, or nil.
func (n *node) next() *node {
	if n.right != nil {
		return n.right.minNode()
	}

	for n.parent != nil && n.parent.right == n {
		n = n.parent
	}

	return n.parent
}

// prev returns the in-order predecessor of n, or nil.
func (n *node) prev() *node {
	if n.left != nil {
		return n.left.maxNode()
	}

	for n.parent != nil && n.parent.left == n {
		n = n.parent
	}

	return n.parent
}
