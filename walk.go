package twinview

// A Visitor defines a Visit method invoked for each Node encountered by Walk.
// If the result visitor w is not nil, Walk visits each child of the node with
// the visitor w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node *Node) (w Visitor)
}

// Walk traverses a Forest in depth-first pre-order: It calls
// WalkSubtree(root) for each root node of the forest; the forest must not be
// nil.
func Walk(v Visitor, forest *Forest) {
	for _, root := range forest.Roots() {
		WalkSubtree(v, root)
	}
}

// WalkSubtree traverses the subtree below the given node in depth-first
// pre-order: It starts by calling v.Visit(node). If the visitor w returned by
// v.Visit(node) is not nil, WalkSubtree is invoked recursively with visitor w
// for each child of the node, followed by a call of w.Visit(nil).
func WalkSubtree(v Visitor, node *Node) {
	// Start by calling v.Visit(node).
	if v = v.Visit(node); v == nil {
		return
	}
	// Then traverse the children of the given node, depth-first, in their
	// stored (edge-list) order.
	for _, child := range node.Children {
		WalkSubtree(v, child)
	}
	// Finally, call v.Visit(nil).
	v.Visit(nil)
}

type inspector func(node *Node) bool

func (f inspector) Visit(node *Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses a Forest in depth-first pre-order: It starts by calling
// f(root) for every root of the given forest; the forest must not be nil. If
// f returns true, Inspect invokes f recursively for each child of the node,
// followed by a call of f(nil).
func Inspect(forest *Forest, f func(node *Node) bool) {
	Walk(inspector(f), forest)
}
