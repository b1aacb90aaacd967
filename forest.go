package twinview

// An Edge is an ordered source->target connection between two twin
// identifiers, as listed in a connections document. Identifiers are opaque
// strings; the builder does not require them to resolve to known twins.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// A Node is a twin instance positioned within the forest.
//
// The forest owns all nodes; a node's children are owned by its Children
// sequence and Parent is a non-owning back-reference. A node referenced as a
// target by more than one edge is shared between its parents, so Parent holds
// whichever parent attached it last.
//
// Do not modify a Node after the forest has been built.
type Node struct {
	ID       string
	Twin     Twin
	Parent   *Node
	Children []*Node
}

// A Forest is the set of nodes built from a connections document, rooted at
// the identifiers that never appear as a target.
//
// The builder assumes the edge set is acyclic and does not verify it; see
// Renderer for the guard applied during traversal.
type Forest struct {
	nodes map[string]*Node
	order []string // node universe in first-appearance order
	roots []*Node
}

// Roots returns the root nodes in first-appearance order of the node
// universe (a source is discovered before its target, edges in input order).
// Do not modify the returned slice.
func (f *Forest) Roots() []*Node { return f.roots }

// Node returns the node with the given identifier, or nil.
func (f *Forest) Node(id string) *Node { return f.nodes[id] }

// Nodes returns every node of the forest in first-appearance order.
func (f *Forest) Nodes() []*Node {
	nodes := make([]*Node, len(f.order))
	for i, id := range f.order {
		nodes[i] = f.nodes[id]
	}
	return nodes
}

// Len returns the number of distinct nodes in the forest.
func (f *Forest) Len() int { return len(f.nodes) }

// VisitEdges calls fn for every parent->child link, in parent discovery
// order and child attachment order, until fn returns false.
func (f *Forest) VisitEdges(fn func(parent, child *Node) bool) {
	for _, id := range f.order {
		parent := f.nodes[id]
		for _, child := range parent.Children {
			if !fn(parent, child) {
				return
			}
		}
	}
}

// BuildForest converts the given edge list into a Forest, attaching each
// target as a child of its source in edge-list order. Sibling order under a
// parent therefore follows the connections document.
//
// Every identifier appearing in the edge list becomes exactly one node. The
// payload for each node is taken from twins; identifiers that twins does not
// know (or all of them, when twins is nil) yield nodes with an empty payload
// carrying only the identifier. An empty edge list yields an empty forest.
//
// Duplicate edges are kept as duplicate child links, mirroring the input. A
// target listed under several sources is attached to each of them as a shared
// node, which makes the structure a DAG rather than a strict forest; the
// renderer then emits that subtree once per parent.
//
// An edge with a blank source or target identifier returns a
// *ValidationError naming the offending edge.
func BuildForest(edges []Edge, twins TwinLookup) (*Forest, error) {
	f := &Forest{nodes: make(map[string]*Node, 2*len(edges))}

	// Reject malformed edges before creating any nodes so a failed build
	// never returns a half-populated forest.
	for i, e := range edges {
		if e.Source == "" || e.Target == "" {
			return nil, &ValidationError{Index: i, Edge: e}
		}
	}

	// Create the node universe first, then link, so forward references
	// (a target connected before it appears as a source) need no special
	// handling.
	for _, e := range edges {
		f.intern(e.Source, twins)
		f.intern(e.Target, twins)
	}

	targets := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		source, target := f.nodes[e.Source], f.nodes[e.Target]
		target.Parent = source
		source.Children = append(source.Children, target)
		targets[e.Target] = struct{}{}
	}

	for _, id := range f.order {
		if _, isTarget := targets[id]; !isTarget {
			f.roots = append(f.roots, f.nodes[id])
		}
	}
	return f, nil
}

// intern returns the node for the given identifier, creating it on first
// sight with the payload resolved from twins.
func (f *Forest) intern(id string, twins TwinLookup) *Node {
	if n, ok := f.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id, Twin: Twin{ID: id}}
	if twins != nil {
		if twin, ok := twins.Twin(id); ok {
			n.Twin = twin
		}
	}
	f.nodes[id] = n
	f.order = append(f.order, id)
	return n
}
